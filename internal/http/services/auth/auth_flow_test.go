package auth_test

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aadidesign/SilentAlliance/internal/cache"
	"github.com/aadidesign/SilentAlliance/internal/config"
	dto "github.com/aadidesign/SilentAlliance/internal/http/dto/auth"
	svc "github.com/aadidesign/SilentAlliance/internal/http/services/auth"
	jwtx "github.com/aadidesign/SilentAlliance/internal/jwt"
	"github.com/aadidesign/SilentAlliance/internal/security/oauthstate"
	tokens "github.com/aadidesign/SilentAlliance/internal/security/token"
	"github.com/aadidesign/SilentAlliance/internal/store/memory"
)

type testEnv struct {
	services svc.Services
	store    *memory.Store
	deps     svc.Deps
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	ks, err := jwtx.NewEd25519("test-1")
	require.NoError(t, err)

	deps := svc.Deps{
		Store:        memory.New(),
		Cache:        cache.NewMemory("test"),
		Issuer:       jwtx.NewIssuer("silentalliance", "silentalliance-api", ks),
		State:        oauthstate.New([]byte("0123456789abcdef0123456789abcdef"), 10*time.Minute),
		RefreshTTL:   time.Hour,
		ChallengeTTL: 5 * time.Minute,
		StateMaxAge:  10 * time.Minute,
		PKCETTL:      10 * time.Minute,
		OAuthCodeTTL: 5 * time.Minute,
		Providers: map[string]config.Provider{
			"github": {
				ClientID:    "cid",
				AuthURL:     "https://github.com/login/oauth/authorize",
				RedirectURI: "http://localhost:8080/v1/auth/oauth/github/callback",
				Scopes:      []string{"read:user"},
			},
		},
	}

	return &testEnv{
		services: svc.NewServices(deps),
		store:    deps.Store.(*memory.Store),
		deps:     deps,
	}
}

type client struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

func newClient(t *testing.T) *client {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return &client{pub: pub, priv: priv}
}

func (c *client) publicKeyB64() string {
	return base64.StdEncoding.EncodeToString(c.pub)
}

func (c *client) sign(challenge string) string {
	return base64.StdEncoding.EncodeToString(ed25519.Sign(c.priv, []byte(challenge)))
}

func register(t *testing.T, env *testEnv, c *client) *dto.RegisterResult {
	t.Helper()
	res, err := env.services.Register.Register(context.Background(), dto.RegisterRequest{PublicKey: c.publicKeyB64()})
	require.NoError(t, err)
	return res
}

func login(t *testing.T, env *testEnv, c *client, res *dto.RegisterResult) *dto.LoginResult {
	t.Helper()
	out, err := env.services.Login.Login(context.Background(), dto.LoginRequest{
		Fingerprint: res.Identity.Fingerprint,
		Challenge:   res.Challenge,
		Signature:   c.sign(res.Challenge),
	})
	require.NoError(t, err)
	return out
}

func TestRegister_IssuesIdentityAndChallenge(t *testing.T) {
	env := newEnv(t)
	c := newClient(t)

	res := register(t, env, c)
	require.NotEmpty(t, res.Identity.ID)
	require.Len(t, res.Identity.Fingerprint, 64)
	require.True(t, strings.HasPrefix(res.Challenge, "silentalliance:"))
	require.Greater(t, res.ExpiresAt, time.Now().Unix())
}

func TestRegister_DuplicateKey(t *testing.T) {
	env := newEnv(t)
	c := newClient(t)

	register(t, env, c)
	_, err := env.services.Register.Register(context.Background(), dto.RegisterRequest{PublicKey: c.publicKeyB64()})
	require.ErrorIs(t, err, svc.ErrFingerprintTaken)
}

func TestRegister_BadKey(t *testing.T) {
	env := newEnv(t)

	for _, pk := range []string{"", "no-base64!!", base64.StdEncoding.EncodeToString([]byte("corto"))} {
		_, err := env.services.Register.Register(context.Background(), dto.RegisterRequest{PublicKey: pk})
		require.Error(t, err, "public_key=%q", pk)
	}
}

func TestChallenge_UnknownAndSuspendedLookAlike(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	_, err := env.services.Challenge.Challenge(ctx, dto.ChallengeRequest{Fingerprint: strings.Repeat("ab", 32)})
	require.ErrorIs(t, err, svc.ErrUnknownFingerprint)

	c := newClient(t)
	res := register(t, env, c)
	require.NoError(t, env.store.Identities().SetSuspended(ctx, res.Identity.ID, true))

	_, err = env.services.Challenge.Challenge(ctx, dto.ChallengeRequest{Fingerprint: res.Identity.Fingerprint})
	require.ErrorIs(t, err, svc.ErrUnknownFingerprint)
}

func TestLogin_FullFlow(t *testing.T) {
	env := newEnv(t)
	c := newClient(t)

	res := register(t, env, c)
	out := login(t, env, c, res)

	require.NotEmpty(t, out.Tokens.AccessToken)
	require.NotEmpty(t, out.Tokens.RefreshToken)
	require.Equal(t, "Bearer", out.Tokens.TokenType)

	claims, err := env.deps.Issuer.ParseAccess(out.Tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, res.Identity.ID, claims.Subject)
	require.Equal(t, res.Identity.Fingerprint, claims.Fingerprint)
}

func TestLogin_ChallengeIsSingleUse(t *testing.T) {
	env := newEnv(t)
	c := newClient(t)

	res := register(t, env, c)
	login(t, env, c, res)

	// El mismo challenge ya fue consumido.
	_, err := env.services.Login.Login(context.Background(), dto.LoginRequest{
		Fingerprint: res.Identity.Fingerprint,
		Challenge:   res.Challenge,
		Signature:   c.sign(res.Challenge),
	})
	require.ErrorIs(t, err, svc.ErrInvalidCredentials)
}

func TestLogin_BadSignatureDoesNotConsumeChallenge(t *testing.T) {
	env := newEnv(t)
	c := newClient(t)
	intruder := newClient(t)

	res := register(t, env, c)

	_, err := env.services.Login.Login(context.Background(), dto.LoginRequest{
		Fingerprint: res.Identity.Fingerprint,
		Challenge:   res.Challenge,
		Signature:   intruder.sign(res.Challenge),
	})
	require.ErrorIs(t, err, svc.ErrInvalidCredentials)

	// El challenge sigue pendiente: el dueño real aún puede entrar.
	login(t, env, c, res)
}

func TestLogin_ExpiredChallengeIsDistinguishable(t *testing.T) {
	env := newEnv(t)
	c := newClient(t)
	ctx := context.Background()

	res := register(t, env, c)

	// Challenge bien formado pero emitido hace 10 minutos, firmado con la
	// clave legítima: debe salir como vencido, no como credencial inválida.
	stale := fmt.Sprintf("silentalliance:%d:%s", time.Now().Add(-10*time.Minute).Unix(), strings.Repeat("ab", 16))
	require.NoError(t, env.deps.Cache.Set(ctx, "challenge:"+res.Identity.Fingerprint, stale, time.Minute))

	_, err := env.services.Login.Login(ctx, dto.LoginRequest{
		Fingerprint: res.Identity.Fingerprint,
		Challenge:   stale,
		Signature:   c.sign(stale),
	})
	require.ErrorIs(t, err, svc.ErrChallengeExpired)
	require.NotErrorIs(t, err, svc.ErrInvalidCredentials)
}

func TestLogin_SuspendedIdentity(t *testing.T) {
	env := newEnv(t)
	c := newClient(t)
	ctx := context.Background()

	res := register(t, env, c)
	require.NoError(t, env.store.Identities().SetSuspended(ctx, res.Identity.ID, true))

	_, err := env.services.Login.Login(ctx, dto.LoginRequest{
		Fingerprint: res.Identity.Fingerprint,
		Challenge:   res.Challenge,
		Signature:   c.sign(res.Challenge),
	})
	require.ErrorIs(t, err, svc.ErrAccountSuspended)
}

func TestRefresh_RotatesWithinFamily(t *testing.T) {
	env := newEnv(t)
	c := newClient(t)
	ctx := context.Background()

	out := login(t, env, c, register(t, env, c))

	rotated, err := env.services.Refresh.Refresh(ctx, dto.RefreshRequest{RefreshToken: out.Tokens.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, out.Tokens.RefreshToken, rotated.Tokens.RefreshToken)

	oldRec, err := env.store.Tokens().GetByHash(ctx, tokens.SHA256Hex(out.Tokens.RefreshToken))
	require.NoError(t, err)
	newRec, err := env.store.Tokens().GetByHash(ctx, tokens.SHA256Hex(rotated.Tokens.RefreshToken))
	require.NoError(t, err)

	require.True(t, oldRec.Revoked())
	require.False(t, newRec.Revoked())
	require.Equal(t, oldRec.FamilyID, newRec.FamilyID)
	require.NotNil(t, newRec.RotatedFrom)
	require.Equal(t, oldRec.ID, *newRec.RotatedFrom)
}

func TestRefresh_ReuseRevokesWholeFamily(t *testing.T) {
	env := newEnv(t)
	c := newClient(t)
	ctx := context.Background()

	out := login(t, env, c, register(t, env, c))

	rotated, err := env.services.Refresh.Refresh(ctx, dto.RefreshRequest{RefreshToken: out.Tokens.RefreshToken})
	require.NoError(t, err)

	// Presentar el token viejo es reuso: cae toda la familia.
	_, err = env.services.Refresh.Refresh(ctx, dto.RefreshRequest{RefreshToken: out.Tokens.RefreshToken})
	require.ErrorIs(t, err, svc.ErrRefreshReuse)

	// El token rotado, aunque nunca presentado, también quedó revocado.
	rec, err := env.store.Tokens().GetByHash(ctx, tokens.SHA256Hex(rotated.Tokens.RefreshToken))
	require.NoError(t, err)
	require.True(t, rec.Revoked())
}

func TestRefresh_FamiliesAreIsolated(t *testing.T) {
	env := newEnv(t)
	c := newClient(t)
	ctx := context.Background()

	// Dos logins = dos familias independientes.
	res := register(t, env, c)
	sessionA := login(t, env, c, res)

	chRes, err := env.services.Challenge.Challenge(ctx, dto.ChallengeRequest{Fingerprint: res.Identity.Fingerprint})
	require.NoError(t, err)
	sessionB, err := env.services.Login.Login(ctx, dto.LoginRequest{
		Fingerprint: res.Identity.Fingerprint,
		Challenge:   chRes.Challenge,
		Signature:   c.sign(chRes.Challenge),
	})
	require.NoError(t, err)

	// Quemar la familia A por reuso.
	_, err = env.services.Refresh.Refresh(ctx, dto.RefreshRequest{RefreshToken: sessionA.Tokens.RefreshToken})
	require.NoError(t, err)
	_, err = env.services.Refresh.Refresh(ctx, dto.RefreshRequest{RefreshToken: sessionA.Tokens.RefreshToken})
	require.ErrorIs(t, err, svc.ErrRefreshReuse)

	// La familia B sigue operativa.
	_, err = env.services.Refresh.Refresh(ctx, dto.RefreshRequest{RefreshToken: sessionB.Tokens.RefreshToken})
	require.NoError(t, err)
}

func TestRefresh_UnknownToken(t *testing.T) {
	env := newEnv(t)

	_, err := env.services.Refresh.Refresh(context.Background(), dto.RefreshRequest{RefreshToken: "inventado"})
	require.ErrorIs(t, err, svc.ErrRefreshInvalid)
}

func TestRefresh_SuspendedIdentityDoesNotRotate(t *testing.T) {
	env := newEnv(t)
	c := newClient(t)
	ctx := context.Background()

	out := login(t, env, c, register(t, env, c))
	require.NoError(t, env.store.Identities().SetSuspended(ctx, out.Identity.ID, true))

	_, err := env.services.Refresh.Refresh(ctx, dto.RefreshRequest{RefreshToken: out.Tokens.RefreshToken})
	require.ErrorIs(t, err, svc.ErrAccountSuspended)

	// El token no fue consumido por el intento.
	rec, err := env.store.Tokens().GetByHash(ctx, tokens.SHA256Hex(out.Tokens.RefreshToken))
	require.NoError(t, err)
	require.False(t, rec.Revoked())
}

func TestLogout_ThenRefreshIsReusePath(t *testing.T) {
	env := newEnv(t)
	c := newClient(t)
	ctx := context.Background()

	out := login(t, env, c, register(t, env, c))

	require.NoError(t, env.services.Logout.Logout(ctx, dto.LogoutRequest{RefreshToken: out.Tokens.RefreshToken}))
	// Logout repetido es idempotente.
	require.NoError(t, env.services.Logout.Logout(ctx, dto.LogoutRequest{RefreshToken: out.Tokens.RefreshToken}))

	// Un token revocado presentado a refresh cae en el camino de reuso.
	_, err := env.services.Refresh.Refresh(ctx, dto.RefreshRequest{RefreshToken: out.Tokens.RefreshToken})
	require.ErrorIs(t, err, svc.ErrRefreshReuse)
}

func TestLogoutAll_RevokesEverySession(t *testing.T) {
	env := newEnv(t)
	c := newClient(t)
	ctx := context.Background()

	res := register(t, env, c)
	sessionA := login(t, env, c, res)

	chRes, err := env.services.Challenge.Challenge(ctx, dto.ChallengeRequest{Fingerprint: res.Identity.Fingerprint})
	require.NoError(t, err)
	sessionB, err := env.services.Login.Login(ctx, dto.LoginRequest{
		Fingerprint: res.Identity.Fingerprint,
		Challenge:   chRes.Challenge,
		Signature:   c.sign(chRes.Challenge),
	})
	require.NoError(t, err)

	revoked, err := env.services.Logout.LogoutAll(ctx, dto.LogoutRequest{RefreshToken: sessionA.Tokens.RefreshToken})
	require.NoError(t, err)
	require.Equal(t, 2, revoked)

	recB, err := env.store.Tokens().GetByHash(ctx, tokens.SHA256Hex(sessionB.Tokens.RefreshToken))
	require.NoError(t, err)
	require.True(t, recB.Revoked())
}

func TestOAuth_AuthorizeAndCallback(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	res, err := env.services.OAuth.Authorize(ctx, "github")
	require.NoError(t, err)
	require.Equal(t, "github", res.Provider)

	u, err := url.Parse(res.AuthorizationURL)
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "cid", q.Get("client_id"))
	require.Equal(t, res.State, q.Get("state"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.NotEmpty(t, q.Get("code_challenge"))

	cb, err := env.services.OAuth.Callback(ctx, "github", res.State, "auth-code-123")
	require.NoError(t, err)
	require.Equal(t, "github", cb.Provider)
}

func TestOAuth_BadState(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	_, err := env.services.OAuth.Authorize(ctx, "gitlab")
	require.ErrorIs(t, err, svc.ErrUnknownProvider)

	_, err = env.services.OAuth.Callback(ctx, "github", "state-falso", "code")
	require.ErrorIs(t, err, svc.ErrInvalidState)

	// State legítimo pero emitido para otro flujo del mismo provider ya
	// verificado contra el cache: un state sin PKCE pendiente no pasa.
	other := oauthstate.New([]byte("otra-clave-distinta-de-32-bytes!"), 10*time.Minute)
	forged, _, err := other.Generate("github")
	require.NoError(t, err)
	_, err = env.services.OAuth.Callback(ctx, "github", forged, "code")
	require.ErrorIs(t, err, svc.ErrInvalidState)
}

func TestOAuth_StateWithoutPendingPKCE(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	// State con MAC válido pero que nunca pasó por Authorize.
	state, _, err := env.deps.State.Generate("github")
	require.NoError(t, err)

	_, err = env.services.OAuth.Callback(ctx, "github", state, "code")
	require.ErrorIs(t, err, svc.ErrInvalidState)
}
