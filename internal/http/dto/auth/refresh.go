package auth

// RefreshRequest intercambia un refresh token opaco por un par nuevo.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse representa la respuesta de una rotación exitosa.
type RefreshResponse struct {
	Tokens TokenPair `json:"tokens"`
}

// RefreshResult es el resultado interno del service.
type RefreshResult struct {
	Tokens TokenPair
}

// LogoutRequest revoca el refresh token presentado (o toda la identidad
// en logout-all).
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}
