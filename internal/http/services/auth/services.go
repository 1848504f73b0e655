package auth

// Services agrupa todos los servicios del dominio auth.
type Services struct {
	Register  RegisterService
	Challenge ChallengeService
	Login     LoginService
	Refresh   RefreshService
	Logout    LogoutService
	OAuth     OAuthService
}

// NewServices construye todos los servicios sobre las mismas dependencias.
func NewServices(deps Deps) Services {
	return Services{
		Register:  NewRegisterService(deps),
		Challenge: NewChallengeService(deps),
		Login:     NewLoginService(deps),
		Refresh:   NewRefreshService(deps),
		Logout:    NewLogoutService(deps),
		OAuth:     NewOAuthService(deps),
	}
}
