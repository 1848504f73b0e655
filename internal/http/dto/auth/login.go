package auth

// LoginRequest representa el login por firma de challenge.
// Signature es la firma ed25519 detached del challenge, en base64 estándar.
type LoginRequest struct {
	Fingerprint string `json:"fingerprint"`
	Challenge   string `json:"challenge"`
	Signature   string `json:"signature"`
}

// TokenPair agrupa los tokens emitidos en login y refresh.
type TokenPair struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"` // "Bearer"
	ExpiresIn        int64  `json:"expires_in"` // segundos
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
}

// LoginResponse representa la respuesta exitosa de login.
type LoginResponse struct {
	Tokens   TokenPair       `json:"tokens"`
	Identity IdentitySummary `json:"identity"`
}

// LoginResult es el resultado interno del service.
type LoginResult struct {
	Tokens   TokenPair
	Identity IdentitySummary
}
