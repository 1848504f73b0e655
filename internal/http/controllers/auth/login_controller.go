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

// LoginController maneja el login por firma de challenge.
type LoginController struct {
	service svc.LoginService
}

// NewLoginController crea un nuevo controller de login.
func NewLoginController(service svc.LoginService) *LoginController {
	return &LoginController{service: service}
}

// Login maneja POST /v1/auth/login
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	result, err := c.service.Login(ctx, req)
	if err != nil {
		log.Debug("login failed", logger.Err(err))
		writeLoginError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.LoginResponse{
		Tokens:   result.Tokens,
		Identity: result.Identity,
	})
}

func writeLoginError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("fingerprint, challenge y signature son obligatorios"))

	case errors.Is(err, svc.ErrInvalidSignature):
		httperrors.WriteError(w, httperrors.ErrInvalidSignature)

	case errors.Is(err, svc.ErrChallengeExpired):
		httperrors.WriteError(w, httperrors.ErrTokenExpired)

	case errors.Is(err, svc.ErrInvalidCredentials):
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)

	case errors.Is(err, svc.ErrAccountSuspended):
		httperrors.WriteError(w, httperrors.ErrAccountSuspended)

	case errors.Is(err, svc.ErrTokenIssueFailed):
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithDetail("error al emitir tokens"))

	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
