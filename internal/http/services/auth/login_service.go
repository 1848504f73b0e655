package auth

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aadidesign/SilentAlliance/internal/cache"
	"github.com/aadidesign/SilentAlliance/internal/domain/repository"
	dto "github.com/aadidesign/SilentAlliance/internal/http/dto/auth"
	"github.com/aadidesign/SilentAlliance/internal/metrics"
	"github.com/aadidesign/SilentAlliance/internal/observability/logger"
	"github.com/aadidesign/SilentAlliance/internal/security/challenge"
	tokens "github.com/aadidesign/SilentAlliance/internal/security/token"
)

// Errores de login
var (
	// ErrInvalidCredentials cubre fingerprint desconocido, challenge ausente
	// y firma que no verifica. Indistinguibles a propósito.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	// ErrChallengeExpired es distinguible: el cliente debe pedir un challenge
	// nuevo, no revisar su clave.
	ErrChallengeExpired = fmt.Errorf("challenge expired")
	ErrInvalidSignature = fmt.Errorf("invalid signature encoding")
	ErrAccountSuspended = fmt.Errorf("account suspended")
	ErrTokenIssueFailed = fmt.Errorf("failed to issue token")
)

type loginService struct {
	deps Deps
}

// NewLoginService crea un nuevo servicio de login.
func NewLoginService(deps Deps) LoginService {
	return &loginService{deps: deps}
}

func (s *loginService) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("Login"),
	)

	fp := strings.ToLower(strings.TrimSpace(in.Fingerprint))
	in.Challenge = strings.TrimSpace(in.Challenge)
	in.Signature = strings.TrimSpace(in.Signature)
	if fp == "" || in.Challenge == "" || in.Signature == "" {
		return nil, ErrMissingFields
	}

	log = log.With(logger.Fingerprint(fp))

	identity, err := s.deps.Store.Identities().GetByFingerprint(ctx, fp)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Debug("fingerprint not registered")
			metrics.LoginsTotal.WithLabelValues("invalid").Inc()
			return nil, ErrInvalidCredentials
		}
		log.Error("identity lookup failed", logger.Err(err))
		return nil, err
	}
	if identity.Suspended {
		log.Info("login denied for suspended identity")
		metrics.LoginsTotal.WithLabelValues("suspended").Inc()
		return nil, ErrAccountSuspended
	}

	// El challenge presentado debe ser exactamente el último emitido.
	stored, err := s.deps.Cache.Get(ctx, "challenge:"+fp)
	if err != nil {
		if cache.IsNotFound(err) {
			log.Debug("no pending challenge")
			metrics.LoginsTotal.WithLabelValues("invalid").Inc()
			return nil, ErrInvalidCredentials
		}
		log.Error("challenge lookup failed", logger.Err(err))
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(in.Challenge)) != 1 {
		log.Debug("challenge mismatch")
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidCredentials
	}

	sig, err := base64.StdEncoding.DecodeString(in.Signature)
	if err != nil {
		log.Debug("signature decode failed")
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidSignature
	}

	ok, err := challenge.VerifyResponse(identity.PublicKey, in.Challenge, sig, s.deps.ChallengeTTL)
	if err != nil {
		// Malformado o vencido: el challenge pendiente NO se consume.
		log.Debug("challenge verify failed", logger.Err(err))
		if errors.Is(err, challenge.ErrExpired) {
			metrics.LoginsTotal.WithLabelValues("expired").Inc()
			return nil, ErrChallengeExpired
		}
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidSignature
	}
	if !ok {
		log.Debug("signature does not verify")
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidCredentials
	}

	// Single-use: se consume sólo tras verificación exitosa.
	if err := s.deps.Cache.Delete(ctx, "challenge:"+fp); err != nil {
		log.Warn("challenge delete failed", logger.Err(err))
	}

	// Login = familia nueva de refresh tokens.
	familyID := uuid.NewString()
	pair, err := issueTokenPair(ctx, s.deps, identity.ID, fp, familyID, nil)
	if err != nil {
		log.Error("token pair issue failed", logger.Err(err))
		return nil, ErrTokenIssueFailed
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	log.Info("login successful", logger.IdentityID(identity.ID), logger.FamilyID(familyID))

	return &dto.LoginResult{
		Tokens: pair,
		Identity: dto.IdentitySummary{
			ID:          identity.ID,
			Fingerprint: identity.Fingerprint,
			DisplayName: identity.DisplayName,
			Karma:       identity.Karma,
		},
	}, nil
}

// issueTokenPair emite un access JWT y un refresh opaco nuevo, persistiendo
// sólo el hash del refresh en el ledger. rotatedFrom enlaza la cadena de
// rotaciones dentro de una familia.
func issueTokenPair(ctx context.Context, deps Deps, identityID, fingerprint, familyID string, rotatedFrom *string) (dto.TokenPair, error) {
	access, _, exp, err := deps.Issuer.IssueAccess(identityID, fingerprint)
	if err != nil {
		return dto.TokenPair{}, err
	}

	rawRefresh, err := tokens.GenerateOpaqueToken(tokens.RefreshTokenBytes)
	if err != nil {
		return dto.TokenPair{}, err
	}

	ttl := deps.RefreshTTL
	if ttl <= 0 {
		ttl = 168 * time.Hour
	}

	if _, err := deps.Store.Tokens().Create(ctx, repository.CreateRefreshTokenInput{
		IdentityID:  identityID,
		TokenHash:   tokens.SHA256Hex(rawRefresh),
		FamilyID:    familyID,
		TTLSeconds:  int(ttl.Seconds()),
		RotatedFrom: rotatedFrom,
	}); err != nil {
		return dto.TokenPair{}, err
	}

	return dto.TokenPair{
		AccessToken:      access,
		RefreshToken:     rawRefresh,
		TokenType:        "Bearer",
		ExpiresIn:        int64(time.Until(exp).Seconds()),
		RefreshExpiresIn: int64(ttl.Seconds()),
	}, nil
}
