package auth

import (
	"errors"
	"net/http"

	"github.com/aadidesign/SilentAlliance/internal/domain/repository"
	dto "github.com/aadidesign/SilentAlliance/internal/http/dto/auth"
	httperrors "github.com/aadidesign/SilentAlliance/internal/http/errors"
	"github.com/aadidesign/SilentAlliance/internal/http/helpers"
	"github.com/aadidesign/SilentAlliance/internal/http/middlewares"
	"github.com/aadidesign/SilentAlliance/internal/observability/logger"
)

// MeController devuelve la identidad autenticada.
type MeController struct {
	identities repository.IdentityRepository
}

// NewMeController crea un nuevo controller de /me.
func NewMeController(identities repository.IdentityRepository) *MeController {
	return &MeController{identities: identities}
}

// Me maneja GET /v1/me. Requiere RequireAuth aguas arriba.
func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("MeController.Me"))

	identityID := middlewares.GetIdentityID(ctx)
	if identityID == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	identity, err := c.identities.GetByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// El token es válido pero la identidad ya no existe.
			log.Info("identity gone", logger.IdentityID(identityID))
			httperrors.WriteError(w, httperrors.ErrTokenInvalid)
			return
		}
		log.Error("identity lookup failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}
	if identity.Suspended {
		httperrors.WriteError(w, httperrors.ErrAccountSuspended)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.IdentitySummary{
		ID:          identity.ID,
		Fingerprint: identity.Fingerprint,
		DisplayName: identity.DisplayName,
		Karma:       identity.Karma,
	})
}
