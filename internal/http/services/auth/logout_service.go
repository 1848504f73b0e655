package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/aadidesign/SilentAlliance/internal/domain/repository"
	dto "github.com/aadidesign/SilentAlliance/internal/http/dto/auth"
	"github.com/aadidesign/SilentAlliance/internal/observability/logger"
	tokens "github.com/aadidesign/SilentAlliance/internal/security/token"
)

type logoutService struct {
	deps Deps
}

// NewLogoutService crea un nuevo servicio de logout.
func NewLogoutService(deps Deps) LogoutService {
	return &logoutService{deps: deps}
}

func (s *logoutService) Logout(ctx context.Context, in dto.LogoutRequest) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.logout"),
		logger.Op("Logout"),
	)

	raw := strings.TrimSpace(in.RefreshToken)
	if raw == "" {
		return ErrMissingFields
	}

	// Idempotente: un token inexistente o ya revocado no filtra información.
	if err := s.deps.Store.Tokens().RevokeByHash(ctx, tokens.SHA256Hex(raw)); err != nil {
		log.Error("logout revoke failed", logger.Err(err))
		return err
	}

	log.Info("logout ok")
	return nil
}

func (s *logoutService) LogoutAll(ctx context.Context, in dto.LogoutRequest) (int, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.logout"),
		logger.Op("LogoutAll"),
	)

	raw := strings.TrimSpace(in.RefreshToken)
	if raw == "" {
		return 0, ErrMissingFields
	}

	// El refresh token presentado identifica a la identidad: no hace falta
	// que siga vigente, pero sí que exista en el ledger.
	rec, err := s.deps.Store.Tokens().GetByHash(ctx, tokens.SHA256Hex(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Debug("refresh token unknown")
			return 0, ErrRefreshInvalid
		}
		log.Error("refresh token lookup failed", logger.Err(err))
		return 0, err
	}

	revoked, err := s.deps.Store.Tokens().RevokeAllByIdentity(ctx, rec.IdentityID)
	if err != nil {
		log.Error("logout-all revoke failed", logger.Err(err))
		return 0, err
	}

	log.Info("logout-all ok", logger.IdentityID(rec.IdentityID), logger.Count(revoked))
	return revoked, nil
}
