// Package memory implementa repository.Store en memoria.
// Útil para desarrollo y testing; respeta la misma semántica CAS que pg.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aadidesign/SilentAlliance/internal/domain/repository"
)

// Store implementa repository.Store con maps protegidos por mutex.
type Store struct {
	mu          sync.Mutex
	identities  map[string]*repository.Identity // por ID
	byFP        map[string]string               // fingerprint -> ID
	tokens      map[string]*repository.RefreshToken
	tokensByHex map[string]string // token_hash -> ID
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		identities:  make(map[string]*repository.Identity),
		byFP:        make(map[string]string),
		tokens:      make(map[string]*repository.RefreshToken),
		tokensByHex: make(map[string]string),
	}
}

func (s *Store) Identities() repository.IdentityRepository { return (*identityRepo)(s) }
func (s *Store) Tokens() repository.TokenRepository        { return (*tokenRepo)(s) }

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close() error                   { return nil }

func cloneIdentity(in *repository.Identity) *repository.Identity {
	out := *in
	out.PublicKey = append([]byte(nil), in.PublicKey...)
	return &out
}

func cloneToken(in *repository.RefreshToken) *repository.RefreshToken {
	out := *in
	return &out
}

// ─── Identities ───

type identityRepo Store

func (r *identityRepo) Create(ctx context.Context, in repository.CreateIdentityInput) (*repository.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byFP[in.Fingerprint]; exists {
		return nil, repository.ErrConflict
	}
	now := time.Now().UTC()
	ident := &repository.Identity{
		ID:          uuid.NewString(),
		PublicKey:   append([]byte(nil), in.PublicKey...),
		Fingerprint: in.Fingerprint,
		DisplayName: in.DisplayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.identities[ident.ID] = ident
	r.byFP[ident.Fingerprint] = ident.ID
	return cloneIdentity(ident), nil
}

func (r *identityRepo) GetByFingerprint(ctx context.Context, fingerprint string) (*repository.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byFP[fingerprint]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneIdentity(r.identities[id]), nil
}

func (r *identityRepo) GetByID(ctx context.Context, id string) (*repository.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ident, ok := r.identities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneIdentity(ident), nil
}

func (r *identityRepo) SetSuspended(ctx context.Context, id string, suspended bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ident, ok := r.identities[id]
	if !ok {
		return repository.ErrNotFound
	}
	ident.Suspended = suspended
	ident.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *identityRepo) AdjustKarma(ctx context.Context, id string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ident, ok := r.identities[id]
	if !ok {
		return repository.ErrNotFound
	}
	ident.Karma += delta
	ident.UpdatedAt = time.Now().UTC()
	return nil
}

// ─── Refresh token ledger ───

type tokenRepo Store

func (r *tokenRepo) Create(ctx context.Context, in repository.CreateRefreshTokenInput) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tokensByHex[in.TokenHash]; exists {
		return "", repository.ErrConflict
	}
	now := time.Now().UTC()
	rt := &repository.RefreshToken{
		ID:          uuid.NewString(),
		IdentityID:  in.IdentityID,
		TokenHash:   in.TokenHash,
		FamilyID:    in.FamilyID,
		IssuedAt:    now,
		ExpiresAt:   now.Add(time.Duration(in.TTLSeconds) * time.Second),
		RotatedFrom: in.RotatedFrom,
	}
	r.tokens[rt.ID] = rt
	r.tokensByHex[rt.TokenHash] = rt.ID
	return rt.ID, nil
}

func (r *tokenRepo) GetByHash(ctx context.Context, tokenHash string) (*repository.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.tokensByHex[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneToken(r.tokens[id]), nil
}

func (r *tokenRepo) Revoke(ctx context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tokens[tokenID]
	if !ok || rt.RevokedAt != nil {
		return false, nil
	}
	now := time.Now().UTC()
	rt.RevokedAt = &now
	return true, nil
}

func (r *tokenRepo) RevokeFamily(ctx context.Context, familyID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	n := 0
	for _, rt := range r.tokens {
		if rt.FamilyID == familyID && rt.RevokedAt == nil {
			rt.RevokedAt = &now
			n++
		}
	}
	return n, nil
}

func (r *tokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.tokensByHex[tokenHash]
	if !ok {
		return nil
	}
	rt := r.tokens[id]
	if rt.RevokedAt == nil {
		now := time.Now().UTC()
		rt.RevokedAt = &now
	}
	return nil
}

func (r *tokenRepo) RevokeAllByIdentity(ctx context.Context, identityID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	n := 0
	for _, rt := range r.tokens {
		if rt.IdentityID == identityID && rt.RevokedAt == nil {
			rt.RevokedAt = &now
			n++
		}
	}
	return n, nil
}

func (r *tokenRepo) DeleteExpired(ctx context.Context, retain time.Duration) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().UTC().Add(-retain)
	n := 0
	for id, rt := range r.tokens {
		if rt.ExpiresAt.Before(cutoff) {
			delete(r.tokens, id)
			delete(r.tokensByHex, rt.TokenHash)
			n++
		}
	}
	return n, nil
}
