// Package auth contiene los controllers de autenticación.
package auth

import (
	"github.com/aadidesign/SilentAlliance/internal/domain/repository"
	svc "github.com/aadidesign/SilentAlliance/internal/http/services/auth"
)

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Register  *RegisterController
	Challenge *ChallengeController
	Login     *LoginController
	Refresh   *RefreshController
	Logout    *LogoutController
	OAuth     *OAuthController
	Me        *MeController
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(s svc.Services, identities repository.IdentityRepository) *Controllers {
	return &Controllers{
		Register:  NewRegisterController(s.Register),
		Challenge: NewChallengeController(s.Challenge),
		Login:     NewLoginController(s.Login),
		Refresh:   NewRefreshController(s.Refresh),
		Logout:    NewLogoutController(s.Logout),
		OAuth:     NewOAuthController(s.OAuth),
		Me:        NewMeController(identities),
	}
}
