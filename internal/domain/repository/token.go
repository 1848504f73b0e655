package repository

import (
	"context"
	"time"
)

// RefreshToken representa un registro del ledger de refresh tokens.
// El token en claro nunca se persiste; solo su hash sha256 hex.
// FamilyID agrupa toda la cadena de rotaciones nacida de un mismo login.
type RefreshToken struct {
	ID          string
	IdentityID  string
	TokenHash   string
	FamilyID    string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	RevokedAt   *time.Time
	RotatedFrom *string
}

// Revoked informa si el registro ya fue revocado.
func (t *RefreshToken) Revoked() bool { return t.RevokedAt != nil }

// Expired informa si el registro venció respecto de now.
func (t *RefreshToken) Expired(now time.Time) bool { return !now.Before(t.ExpiresAt) }

// CreateRefreshTokenInput contiene los datos para crear un refresh token.
type CreateRefreshTokenInput struct {
	IdentityID  string
	TokenHash   string
	FamilyID    string
	TTLSeconds  int
	RotatedFrom *string
}

// TokenRepository define operaciones sobre el ledger de refresh tokens.
type TokenRepository interface {
	// Create crea un nuevo refresh token. Retorna el ID del registro.
	Create(ctx context.Context, input CreateRefreshTokenInput) (string, error)

	// GetByHash busca un token por su hash. Retorna ErrNotFound si no existe.
	GetByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// Revoke marca revoked_at sobre un registro aún vigente.
	// Retorna won=false si otro caller lo revocó primero: ese resultado es
	// el árbitro de las rotaciones concurrentes (exactamente uno gana).
	Revoke(ctx context.Context, tokenID string) (won bool, err error)

	// RevokeFamily revoca todos los registros vigentes de una familia.
	// Retorna cuántos revocó.
	RevokeFamily(ctx context.Context, familyID string) (int, error)

	// RevokeByHash revoca el registro con ese hash si está vigente.
	// Idempotente: un hash inexistente o ya revocado no es error.
	RevokeByHash(ctx context.Context, tokenHash string) error

	// RevokeAllByIdentity revoca todos los registros vigentes de una identidad.
	// Retorna cuántos revocó.
	RevokeAllByIdentity(ctx context.Context, identityID string) (int, error)

	// DeleteExpired purga registros vencidos hace más de retain.
	// Pensado para el job periódico de limpieza, no para el camino caliente.
	DeleteExpired(ctx context.Context, retain time.Duration) (int, error)
}

// Store agrupa los repositorios del servicio.
type Store interface {
	Identities() IdentityRepository
	Tokens() TokenRepository

	// Ping verifica la conexión al backend.
	Ping(ctx context.Context) error

	// Close libera recursos.
	Close() error
}
