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

// RefreshController maneja la rotación de refresh tokens.
type RefreshController struct {
	service svc.RefreshService
}

// NewRefreshController crea un nuevo controller de refresh.
func NewRefreshController(service svc.RefreshService) *RefreshController {
	return &RefreshController{service: service}
}

// Refresh maneja POST /v1/auth/refresh
func (c *RefreshController) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RefreshController.Refresh"))

	var req dto.RefreshRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	result, err := c.service.Refresh(ctx, req)
	if err != nil {
		log.Debug("refresh failed", logger.Err(err))
		writeRefreshError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.RefreshResponse{Tokens: result.Tokens})
}

func writeRefreshError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("refresh_token es obligatorio"))

	case errors.Is(err, svc.ErrRefreshInvalid):
		httperrors.WriteError(w, httperrors.ErrTokenInvalid)

	case errors.Is(err, svc.ErrRefreshExpired):
		httperrors.WriteError(w, httperrors.ErrTokenExpired)

	case errors.Is(err, svc.ErrRefreshReuse):
		httperrors.WriteError(w, httperrors.ErrRefreshTokenReuse)

	case errors.Is(err, svc.ErrAccountSuspended):
		httperrors.WriteError(w, httperrors.ErrAccountSuspended)

	case errors.Is(err, svc.ErrTokenIssueFailed):
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithDetail("error al emitir tokens"))

	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
