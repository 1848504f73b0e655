package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aadidesign/SilentAlliance/internal/domain/repository"
	dto "github.com/aadidesign/SilentAlliance/internal/http/dto/auth"
	"github.com/aadidesign/SilentAlliance/internal/metrics"
	"github.com/aadidesign/SilentAlliance/internal/observability/logger"
	tokens "github.com/aadidesign/SilentAlliance/internal/security/token"
)

// Errores de rotación
var (
	ErrRefreshInvalid = fmt.Errorf("invalid refresh token")
	ErrRefreshExpired = fmt.Errorf("refresh token expired")
	// ErrRefreshReuse indica presentación de un token ya revocado. Es
	// distinguible del resto: la familia entera quedó revocada y el cliente
	// debe re-autenticarse con su clave.
	ErrRefreshReuse = fmt.Errorf("refresh token reuse detected")
)

type refreshService struct {
	deps Deps
}

// NewRefreshService crea un nuevo servicio de rotación.
func NewRefreshService(deps Deps) RefreshService {
	return &refreshService{deps: deps}
}

func (s *refreshService) Refresh(ctx context.Context, in dto.RefreshRequest) (*dto.RefreshResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.refresh"),
		logger.Op("Refresh"),
	)

	raw := strings.TrimSpace(in.RefreshToken)
	if raw == "" {
		return nil, ErrMissingFields
	}

	rec, err := s.deps.Store.Tokens().GetByHash(ctx, tokens.SHA256Hex(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Debug("refresh token unknown")
			return nil, ErrRefreshInvalid
		}
		log.Error("refresh token lookup failed", logger.Err(err))
		return nil, err
	}

	log = log.With(logger.IdentityID(rec.IdentityID), logger.FamilyID(rec.FamilyID))

	// Un token revocado que vuelve a aparecer es evidencia de robo: algún
	// cliente legítimo ya lo rotó. Se quema la familia completa.
	if rec.Revoked() {
		return nil, s.reuse(ctx, rec)
	}

	if rec.Expired(time.Now().UTC()) {
		// Vencido no es reuso: no se consume ni se castiga a la familia.
		log.Debug("refresh token expired")
		return nil, ErrRefreshExpired
	}

	identity, err := s.deps.Store.Identities().GetByID(ctx, rec.IdentityID)
	if err != nil {
		log.Error("identity lookup failed", logger.Err(err))
		return nil, ErrRefreshInvalid
	}
	if identity.Suspended {
		log.Info("refresh denied for suspended identity")
		return nil, ErrAccountSuspended
	}

	// CAS sobre revoked_at: de N rotaciones concurrentes del mismo token,
	// exactamente una gana. Las perdedoras caen en el camino de reuso.
	won, err := s.deps.Store.Tokens().Revoke(ctx, rec.ID)
	if err != nil {
		log.Error("refresh token revoke failed", logger.Err(err))
		return nil, err
	}
	if !won {
		return nil, s.reuse(ctx, rec)
	}

	pair, err := issueTokenPair(ctx, s.deps, identity.ID, identity.Fingerprint, rec.FamilyID, &rec.ID)
	if err != nil {
		log.Error("token pair issue failed", logger.Err(err))
		return nil, ErrTokenIssueFailed
	}

	metrics.RefreshRotations.Inc()
	log.Info("refresh token rotated")

	return &dto.RefreshResult{Tokens: pair}, nil
}

// reuse quema la familia del token reusado y avisa a operaciones.
func (s *refreshService) reuse(ctx context.Context, rec *repository.RefreshToken) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.refresh"),
		logger.Op("reuse"),
		logger.IdentityID(rec.IdentityID),
		logger.FamilyID(rec.FamilyID),
	)

	revoked, err := s.deps.Store.Tokens().RevokeFamily(ctx, rec.FamilyID)
	if err != nil {
		log.Error("family revoke failed", logger.Err(err))
		// La detección no se pierde aunque la revocación falle.
	}

	metrics.ReuseDetections.Inc()
	if revoked > 0 {
		metrics.FamiliesRevoked.Inc()
	}
	log.Warn("refresh token reuse detected, family revoked", logger.Count(revoked))

	if s.deps.Alerts != nil && s.deps.OpsEmail != "" {
		subject := "[silentalliance] refresh token reuse detected"
		text := fmt.Sprintf(
			"Refresh token reuse detected.\n\nidentity_id: %s\nfamily_id: %s\ntokens revoked: %d\n",
			rec.IdentityID, rec.FamilyID, revoked,
		)
		if err := s.deps.Alerts.Send(s.deps.OpsEmail, subject, "", text); err != nil {
			log.Warn("reuse alert send failed", logger.Err(err))
		}
	}

	return ErrRefreshReuse
}
