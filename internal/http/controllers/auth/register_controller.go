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

// RegisterController maneja el registro de identidades.
type RegisterController struct {
	service svc.RegisterService
}

// NewRegisterController crea un nuevo controller de registro.
func NewRegisterController(service svc.RegisterService) *RegisterController {
	return &RegisterController{service: service}
}

// Register maneja POST /v1/auth/register
func (c *RegisterController) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RegisterController.Register"))

	var req dto.RegisterRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	result, err := c.service.Register(ctx, req)
	if err != nil {
		log.Debug("register failed", logger.Err(err))
		writeRegisterError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, dto.RegisterResponse{
		Identity:  result.Identity,
		Challenge: result.Challenge,
		ExpiresAt: result.ExpiresAt,
	})
}

func writeRegisterError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("public_key es obligatorio"))

	case errors.Is(err, svc.ErrInvalidPublicKey):
		httperrors.WriteError(w, httperrors.ErrInvalidPublicKey)

	case errors.Is(err, svc.ErrFingerprintTaken):
		httperrors.WriteError(w, httperrors.ErrFingerprintTaken)

	case errors.Is(err, svc.ErrChallengeIssue):
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithDetail("error al emitir challenge"))

	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
