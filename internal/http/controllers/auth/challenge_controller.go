package auth

import (
	"errors"
	"net/http"

	dto "github.com/aadidesign/SilentAlliance/internal/http/dto/auth"
	httperrors "github.com/aadidesign/SilentAlliance/internal/http/errors"
	"github.com/aadidesign/SilentAlliance/internal/http/helpers"
	svc "github.com/aadidesign/SilentAlliance/internal/http/services/auth"
	"github.com/aadidesign/SilentAlliance/internal/observability/logger"
)

// ChallengeController maneja la emisión de challenges de login.
type ChallengeController struct {
	service svc.ChallengeService
}

// NewChallengeController crea un nuevo controller de challenges.
func NewChallengeController(service svc.ChallengeService) *ChallengeController {
	return &ChallengeController{service: service}
}

// Challenge maneja POST /v1/auth/challenge
func (c *ChallengeController) Challenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ChallengeController.Challenge"))

	var req dto.ChallengeRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	result, err := c.service.Challenge(ctx, req)
	if err != nil {
		log.Debug("challenge failed", logger.Err(err))
		switch {
		case errors.Is(err, svc.ErrMissingFields):
			httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("fingerprint es obligatorio"))
		case errors.Is(err, svc.ErrUnknownFingerprint):
			// Inexistente y suspendido responden igual.
			httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
		default:
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.ChallengeResponse{
		Challenge: result.Challenge,
		ExpiresAt: result.ExpiresAt,
	})
}
