package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aadidesign/SilentAlliance/internal/domain/repository"
	dto "github.com/aadidesign/SilentAlliance/internal/http/dto/auth"
	"github.com/aadidesign/SilentAlliance/internal/metrics"
	"github.com/aadidesign/SilentAlliance/internal/observability/logger"
)

// ErrUnknownFingerprint cubre fingerprint inexistente y suspendido por igual:
// el endpoint de challenge no debe servir como oráculo de existencia.
var ErrUnknownFingerprint = fmt.Errorf("unknown fingerprint")

type challengeService struct {
	deps Deps
}

// NewChallengeService crea un nuevo servicio de challenges.
func NewChallengeService(deps Deps) ChallengeService {
	return &challengeService{deps: deps}
}

func (s *challengeService) Challenge(ctx context.Context, in dto.ChallengeRequest) (*dto.ChallengeResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.challenge"),
		logger.Op("Challenge"),
	)

	fp := strings.ToLower(strings.TrimSpace(in.Fingerprint))
	if fp == "" {
		return nil, ErrMissingFields
	}

	log = log.With(logger.Fingerprint(fp))

	identity, err := s.deps.Store.Identities().GetByFingerprint(ctx, fp)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Debug("fingerprint not registered")
			return nil, ErrUnknownFingerprint
		}
		log.Error("identity lookup failed", logger.Err(err))
		return nil, err
	}
	if identity.Suspended {
		// Misma respuesta que inexistente.
		log.Info("challenge denied for suspended identity")
		return nil, ErrUnknownFingerprint
	}

	raw, expiresAt, err := issueChallenge(ctx, s.deps, fp)
	if err != nil {
		log.Error("challenge issue failed", logger.Err(err))
		return nil, ErrChallengeIssue
	}

	metrics.ChallengesIssued.Inc()
	log.Info("challenge issued")

	return &dto.ChallengeResult{Challenge: raw, ExpiresAt: expiresAt}, nil
}
