package repository

import (
	"context"
	"time"
)

// Identity representa una identidad pseudónima: una clave pública ed25519
// y su fingerprint. No hay email ni password; la clave ES la identidad.
type Identity struct {
	ID          string
	PublicKey   []byte // 32 bytes, ed25519
	Fingerprint string // sha256 hex de PublicKey, único
	DisplayName *string
	Karma       int
	Suspended   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateIdentityInput contiene los datos para registrar una identidad.
type CreateIdentityInput struct {
	PublicKey   []byte
	Fingerprint string
	DisplayName *string
}

// IdentityRepository define operaciones sobre identidades.
type IdentityRepository interface {
	// Create registra una identidad nueva.
	// Retorna ErrConflict si el fingerprint ya existe.
	Create(ctx context.Context, input CreateIdentityInput) (*Identity, error)

	// GetByFingerprint busca por fingerprint. Retorna ErrNotFound si no existe.
	GetByFingerprint(ctx context.Context, fingerprint string) (*Identity, error)

	// GetByID busca por ID. Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*Identity, error)

	// SetSuspended marca o desmarca la suspensión de una identidad.
	// La capa de moderación que lo invoca vive fuera de este servicio.
	SetSuspended(ctx context.Context, id string, suspended bool) error

	// AdjustKarma suma delta al karma de la identidad.
	AdjustKarma(ctx context.Context, id string, delta int) error
}
