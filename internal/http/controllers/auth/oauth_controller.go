package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/aadidesign/SilentAlliance/internal/http/dto/auth"
	httperrors "github.com/aadidesign/SilentAlliance/internal/http/errors"
	"github.com/aadidesign/SilentAlliance/internal/http/helpers"
	svc "github.com/aadidesign/SilentAlliance/internal/http/services/auth"
	"github.com/aadidesign/SilentAlliance/internal/observability/logger"
)

// OAuthController maneja el flujo de vinculación OAuth.
type OAuthController struct {
	service svc.OAuthService
}

// NewOAuthController crea un nuevo controller de OAuth.
func NewOAuthController(service svc.OAuthService) *OAuthController {
	return &OAuthController{service: service}
}

// Authorize maneja GET /v1/auth/oauth/authorize?provider=github
func (c *OAuthController) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("OAuthController.Authorize"))

	provider := r.URL.Query().Get("provider")
	if provider == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("provider es obligatorio"))
		return
	}

	result, err := c.service.Authorize(ctx, provider)
	if err != nil {
		log.Debug("authorize failed", logger.Err(err))
		writeOAuthError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.OAuthAuthorizeResponse{
		Provider:         result.Provider,
		AuthorizationURL: result.AuthorizationURL,
		State:            result.State,
		ExpiresAt:        result.ExpiresAt,
	})
}

// Callback maneja GET /v1/auth/oauth/{provider}/callback?state=...&code=...
func (c *OAuthController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("OAuthController.Callback"))

	provider := chi.URLParam(r, "provider")
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")

	result, err := c.service.Callback(ctx, provider, state, code)
	if err != nil {
		log.Debug("callback failed", logger.Err(err))
		writeOAuthError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.OAuthCallbackResponse{
		Provider: result.Provider,
		Status:   "accepted",
	})
}

func writeOAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("state y code son obligatorios"))

	case errors.Is(err, svc.ErrUnknownProvider):
		httperrors.WriteError(w, httperrors.ErrUnknownProvider)

	case errors.Is(err, svc.ErrInvalidState):
		httperrors.WriteError(w, httperrors.ErrInvalidOAuthState)

	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
