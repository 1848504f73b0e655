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
	"github.com/aadidesign/SilentAlliance/internal/security/challenge"
	"github.com/aadidesign/SilentAlliance/internal/security/signature"
)

// Errores de registro
var (
	ErrMissingFields      = fmt.Errorf("missing required fields")
	ErrInvalidPublicKey   = fmt.Errorf("invalid public key")
	ErrFingerprintTaken   = fmt.Errorf("fingerprint already registered")
	ErrChallengeIssue     = fmt.Errorf("failed to issue challenge")
	ErrRegistrationFailed = fmt.Errorf("registration failed")
)

type registerService struct {
	deps Deps
}

// NewRegisterService crea un nuevo servicio de registro.
func NewRegisterService(deps Deps) RegisterService {
	return &registerService{deps: deps}
}

func (s *registerService) Register(ctx context.Context, in dto.RegisterRequest) (*dto.RegisterResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.register"),
		logger.Op("Register"),
	)

	in.PublicKey = strings.TrimSpace(in.PublicKey)
	if in.PublicKey == "" {
		return nil, ErrMissingFields
	}

	// La clave viaja en base64 estándar y debe medir exactamente 32 bytes.
	pub, err := signature.DecodePublicKey(in.PublicKey)
	if err != nil {
		log.Debug("public key rejected", logger.Err(err))
		return nil, ErrInvalidPublicKey
	}
	fp := signature.Fingerprint(pub)

	log = log.With(logger.Fingerprint(fp))

	var display *string
	if in.DisplayName != nil {
		if d := strings.TrimSpace(*in.DisplayName); d != "" {
			display = &d
		}
	}

	identity, err := s.deps.Store.Identities().Create(ctx, repository.CreateIdentityInput{
		PublicKey:   pub,
		Fingerprint: fp,
		DisplayName: display,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			log.Info("fingerprint already registered")
			return nil, ErrFingerprintTaken
		}
		log.Error("identity create failed", logger.Err(err))
		return nil, ErrRegistrationFailed
	}

	log = log.With(logger.IdentityID(identity.ID))

	// Primer challenge: el cliente puede loguearse sin un round-trip extra.
	ch, expiresAt, err := issueChallenge(ctx, s.deps, fp)
	if err != nil {
		log.Error("challenge issue failed", logger.Err(err))
		return nil, ErrChallengeIssue
	}

	metrics.ChallengesIssued.Inc()
	log.Info("identity registered")

	return &dto.RegisterResult{
		Identity: dto.IdentitySummary{
			ID:          identity.ID,
			Fingerprint: identity.Fingerprint,
			DisplayName: identity.DisplayName,
			Karma:       identity.Karma,
		},
		Challenge: ch,
		ExpiresAt: expiresAt,
	}, nil
}

// issueChallenge genera un challenge fresco y lo deja en cache bajo
// "challenge:<fingerprint>". Un challenge previo pendiente se pisa: sólo
// el último emitido es respondible.
func issueChallenge(ctx context.Context, deps Deps, fingerprint string) (raw string, expiresAt int64, err error) {
	ch, err := challenge.New()
	if err != nil {
		return "", 0, err
	}
	ttl := deps.ChallengeTTL
	if ttl <= 0 {
		ttl = challenge.DefaultTTL
	}
	if err := deps.Cache.Set(ctx, "challenge:"+fingerprint, ch.Raw, ttl); err != nil {
		return "", 0, err
	}
	return ch.Raw, ch.ExpiresAt(ttl).Unix(), nil
}
