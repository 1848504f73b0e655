// Package auth contiene DTOs para los endpoints de autenticación.
package auth

// RegisterRequest representa la solicitud de registro de una identidad.
// La clave pública ed25519 viaja en base64 estándar (32 bytes).
type RegisterRequest struct {
	PublicKey   string  `json:"public_key"`
	DisplayName *string `json:"display_name,omitempty"`
}

// IdentitySummary es la vista pública de una identidad.
type IdentitySummary struct {
	ID          string  `json:"id"`
	Fingerprint string  `json:"fingerprint"`
	DisplayName *string `json:"display_name,omitempty"`
	Karma       int     `json:"karma"`
}

// RegisterResponse representa la respuesta exitosa de registro.
// Incluye el primer challenge para que el cliente pueda loguearse sin
// un round-trip extra.
type RegisterResponse struct {
	Identity  IdentitySummary `json:"identity"`
	Challenge string          `json:"challenge"`
	ExpiresAt int64           `json:"expires_at"` // unix
}

// RegisterResult es el resultado interno del service.
type RegisterResult struct {
	Identity  IdentitySummary
	Challenge string
	ExpiresAt int64
}
