package auth

// OAuthAuthorizeResponse devuelve la URL de autorización construida y el
// state opaco que el cliente debe conservar hasta el callback.
type OAuthAuthorizeResponse struct {
	Provider         string `json:"provider"`
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
	ExpiresAt        int64  `json:"expires_at"` // unix
}

// OAuthAuthorizeResult es el resultado interno del service.
type OAuthAuthorizeResult struct {
	Provider         string
	AuthorizationURL string
	State            string
	ExpiresAt        int64
}

// OAuthCallbackResponse confirma que el callback fue aceptado y que el
// authorization code quedó registrado para el intercambio posterior.
type OAuthCallbackResponse struct {
	Provider string `json:"provider"`
	Status   string `json:"status"` // "accepted"
}

// OAuthCallbackResult es el resultado interno del service.
type OAuthCallbackResult struct {
	Provider string
}
