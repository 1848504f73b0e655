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

// LogoutController maneja logout y logout-all.
type LogoutController struct {
	service svc.LogoutService
}

// NewLogoutController crea un nuevo controller de logout.
func NewLogoutController(service svc.LogoutService) *LogoutController {
	return &LogoutController{service: service}
}

// Logout maneja POST /v1/auth/logout
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.Logout"))

	var req dto.LogoutRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if err := c.service.Logout(ctx, req); err != nil {
		log.Debug("logout failed", logger.Err(err))
		if errors.Is(err, svc.ErrMissingFields) {
			httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("refresh_token es obligatorio"))
			return
		}
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// LogoutAll maneja POST /v1/auth/logout-all
func (c *LogoutController) LogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.LogoutAll"))

	var req dto.LogoutRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	revoked, err := c.service.LogoutAll(ctx, req)
	if err != nil {
		log.Debug("logout-all failed", logger.Err(err))
		switch {
		case errors.Is(err, svc.ErrMissingFields):
			httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("refresh_token es obligatorio"))
		case errors.Is(err, svc.ErrRefreshInvalid):
			httperrors.WriteError(w, httperrors.ErrTokenInvalid)
		default:
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{"revoked": revoked})
}
