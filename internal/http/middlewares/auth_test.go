package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aadidesign/SilentAlliance/internal/http/middlewares"
	jwtx "github.com/aadidesign/SilentAlliance/internal/jwt"
)

func newIssuer(t *testing.T) *jwtx.Issuer {
	t.Helper()
	ks, err := jwtx.NewEd25519("mw-test")
	require.NoError(t, err)
	return jwtx.NewIssuer("silentalliance", "silentalliance-api", ks)
}

func protected(t *testing.T, issuer *jwtx.Issuer) (http.Handler, *string) {
	t.Helper()
	var seenIdentity string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenIdentity = middlewares.GetIdentityID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return middlewares.Chain(h, middlewares.RequireAuth(issuer)), &seenIdentity
}

func TestRequireAuth_ValidToken(t *testing.T) {
	issuer := newIssuer(t)
	h, seen := protected(t, issuer)

	signed, _, _, err := issuer.IssueAccess("identity-1", "fp-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "identity-1", *seen)
}

func TestRequireAuth_MissingToken(t *testing.T) {
	h, _ := protected(t, newIssuer(t))

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	h, _ := protected(t, newIssuer(t))

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer no-es-un-jwt")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "TOKEN_INVALID")
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	issuer := newIssuer(t)
	issuer.AccessTTL = -time.Minute
	h, _ := protected(t, issuer)

	signed, _, _, err := issuer.IssueAccess("identity-1", "fp-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "TOKEN_EXPIRED")
}

func TestRequireAuth_ForeignIssuer(t *testing.T) {
	ours := newIssuer(t)
	theirs := newIssuer(t)
	h, _ := protected(t, ours)

	signed, _, _, err := theirs.IssueAccess("identity-1", "fp-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChain_Order(t *testing.T) {
	var trace []string
	mk := func(name string) middlewares.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := middlewares.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trace = append(trace, "handler")
	}), mk("a"), mk("b"), mk("c"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"a", "b", "c", "handler"}, trace)
}
