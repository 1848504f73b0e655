package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aadidesign/SilentAlliance/internal/cache"
	dto "github.com/aadidesign/SilentAlliance/internal/http/dto/auth"
	"github.com/aadidesign/SilentAlliance/internal/observability/logger"
	"github.com/aadidesign/SilentAlliance/internal/security/oauthstate"
	tokens "github.com/aadidesign/SilentAlliance/internal/security/token"
)

// Errores de OAuth
var (
	ErrUnknownProvider = fmt.Errorf("unknown oauth provider")
	// ErrInvalidState cubre state forjado, vencido, ya usado o de otro
	// provider. Un atacante no debe poder distinguir el motivo.
	ErrInvalidState = fmt.Errorf("invalid oauth state")
)

type oauthService struct {
	deps Deps
}

// NewOAuthService crea un nuevo servicio de vinculación OAuth.
func NewOAuthService(deps Deps) OAuthService {
	return &oauthService{deps: deps}
}

func (s *oauthService) Authorize(ctx context.Context, provider string) (*dto.OAuthAuthorizeResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.oauth"),
		logger.Op("Authorize"),
		logger.Provider(provider),
	)

	p, ok := s.deps.Providers[provider]
	if !ok {
		log.Debug("provider not configured")
		return nil, ErrUnknownProvider
	}

	state, _, err := s.deps.State.Generate(provider)
	if err != nil {
		log.Error("state generate failed", logger.Err(err))
		return nil, err
	}

	verifier, err := oauthstate.GenerateVerifier()
	if err != nil {
		log.Error("pkce verifier generate failed", logger.Err(err))
		return nil, err
	}

	// El verifier queda cacheado hasta el callback, keyed por el hash del
	// state para acotar la longitud de la key.
	pkceTTL := s.deps.PKCETTL
	if pkceTTL <= 0 {
		pkceTTL = 10 * time.Minute
	}
	if err := s.deps.Cache.Set(ctx, "oauth:pkce:"+tokens.SHA256Hex(state), verifier, pkceTTL); err != nil {
		log.Error("pkce cache set failed", logger.Err(err))
		return nil, err
	}

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", p.ClientID)
	q.Set("redirect_uri", p.RedirectURI)
	if len(p.Scopes) > 0 {
		q.Set("scope", strings.Join(p.Scopes, " "))
	}
	q.Set("state", state)
	q.Set("code_challenge", oauthstate.ChallengeS256(verifier))
	q.Set("code_challenge_method", "S256")

	sep := "?"
	if strings.Contains(p.AuthURL, "?") {
		sep = "&"
	}
	authorizationURL := p.AuthURL + sep + q.Encode()

	maxAge := s.deps.StateMaxAge
	if maxAge <= 0 {
		maxAge = oauthstate.DefaultMaxAge
	}

	log.Info("authorize url issued")

	return &dto.OAuthAuthorizeResult{
		Provider:         provider,
		AuthorizationURL: authorizationURL,
		State:            state,
		ExpiresAt:        time.Now().UTC().Add(maxAge).Unix(),
	}, nil
}

func (s *oauthService) Callback(ctx context.Context, provider, state, code string) (*dto.OAuthCallbackResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.oauth"),
		logger.Op("Callback"),
		logger.Provider(provider),
	)

	if strings.TrimSpace(state) == "" || strings.TrimSpace(code) == "" {
		return nil, ErrMissingFields
	}
	if _, ok := s.deps.Providers[provider]; !ok {
		log.Debug("provider not configured")
		return nil, ErrUnknownProvider
	}

	embedded, err := s.deps.State.Verify(state)
	if err != nil {
		log.Debug("state verify failed")
		return nil, ErrInvalidState
	}
	if embedded != provider {
		log.Debug("state provider mismatch")
		return nil, ErrInvalidState
	}

	// El PKCE pendiente arbitra el single-use del state: si ya no está,
	// el state fue consumido o venció.
	stateKey := tokens.SHA256Hex(state)
	if _, err := s.deps.Cache.Get(ctx, "oauth:pkce:"+stateKey); err != nil {
		if cache.IsNotFound(err) {
			log.Debug("no pending pkce for state")
			return nil, ErrInvalidState
		}
		log.Error("pkce cache get failed", logger.Err(err))
		return nil, err
	}

	// El authorization code queda registrado para el intercambio con el
	// provider; el verifier sigue disponible bajo la misma key.
	codeTTL := s.deps.OAuthCodeTTL
	if codeTTL <= 0 {
		codeTTL = 5 * time.Minute
	}
	if err := s.deps.Cache.Set(ctx, "oauth:code:"+stateKey, code, codeTTL); err != nil {
		log.Error("code cache set failed", logger.Err(err))
		return nil, err
	}

	log.Info("callback accepted")

	return &dto.OAuthCallbackResult{Provider: provider}, nil
}
