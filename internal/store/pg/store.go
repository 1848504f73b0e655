// Package pg implementa repository.Store sobre PostgreSQL con pgx.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aadidesign/SilentAlliance/internal/domain/repository"
)

const uniqueViolation = "23505"

// Store implementa repository.Store sobre un pool pgx.
type Store struct {
	pool *pgxpool.Pool
}

// New crea el store y verifica la conexión.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Identities() repository.IdentityRepository { return (*identityRepo)(s) }
func (s *Store) Tokens() repository.TokenRepository        { return (*tokenRepo)(s) }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Pool expone el pool subyacente (migraciones, tests de integración).
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// ─────────────────────────────────────────────────────────────────────────────
// Identities
// ─────────────────────────────────────────────────────────────────────────────

type identityRepo Store

func (r *identityRepo) Create(ctx context.Context, in repository.CreateIdentityInput) (*repository.Identity, error) {
	const q = `
INSERT INTO identities (id, public_key, public_key_fingerprint, display_name)
VALUES (gen_random_uuid(), $1, $2, $3)
RETURNING id, public_key, public_key_fingerprint, display_name, karma, is_suspended, created_at, updated_at`

	var ident repository.Identity
	err := r.pool.QueryRow(ctx, q, in.PublicKey, in.Fingerprint, in.DisplayName).Scan(
		&ident.ID, &ident.PublicKey, &ident.Fingerprint, &ident.DisplayName,
		&ident.Karma, &ident.Suspended, &ident.CreatedAt, &ident.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, repository.ErrConflict
		}
		return nil, err
	}
	return &ident, nil
}

func (r *identityRepo) GetByFingerprint(ctx context.Context, fingerprint string) (*repository.Identity, error) {
	const q = `
SELECT id, public_key, public_key_fingerprint, display_name, karma, is_suspended, created_at, updated_at
FROM identities
WHERE public_key_fingerprint = $1
LIMIT 1`
	return r.scanOne(ctx, q, fingerprint)
}

func (r *identityRepo) GetByID(ctx context.Context, id string) (*repository.Identity, error) {
	const q = `
SELECT id, public_key, public_key_fingerprint, display_name, karma, is_suspended, created_at, updated_at
FROM identities
WHERE id = $1
LIMIT 1`
	return r.scanOne(ctx, q, id)
}

func (r *identityRepo) scanOne(ctx context.Context, q string, arg any) (*repository.Identity, error) {
	var ident repository.Identity
	err := r.pool.QueryRow(ctx, q, arg).Scan(
		&ident.ID, &ident.PublicKey, &ident.Fingerprint, &ident.DisplayName,
		&ident.Karma, &ident.Suspended, &ident.CreatedAt, &ident.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ident, nil
}

func (r *identityRepo) SetSuspended(ctx context.Context, id string, suspended bool) error {
	const q = `UPDATE identities SET is_suspended = $2, updated_at = now() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, suspended)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *identityRepo) AdjustKarma(ctx context.Context, id string, delta int) error {
	const q = `UPDATE identities SET karma = karma + $2, updated_at = now() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Refresh token ledger
// ─────────────────────────────────────────────────────────────────────────────

type tokenRepo Store

func (r *tokenRepo) Create(ctx context.Context, in repository.CreateRefreshTokenInput) (string, error) {
	const q = `
INSERT INTO refresh_tokens (id, identity_id, token_hash, family_id, issued_at, expires_at, rotated_from)
VALUES (gen_random_uuid(), $1, $2, $3, now(), now() + make_interval(secs => $4), $5)
RETURNING id`

	var id string
	err := r.pool.QueryRow(ctx, q, in.IdentityID, in.TokenHash, in.FamilyID, in.TTLSeconds, in.RotatedFrom).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", repository.ErrConflict
		}
		return "", err
	}
	return id, nil
}

func (r *tokenRepo) GetByHash(ctx context.Context, tokenHash string) (*repository.RefreshToken, error) {
	const q = `
SELECT id, identity_id, token_hash, family_id, issued_at, expires_at, revoked_at, rotated_from
FROM refresh_tokens
WHERE token_hash = $1
LIMIT 1`

	var rt repository.RefreshToken
	err := r.pool.QueryRow(ctx, q, tokenHash).Scan(
		&rt.ID, &rt.IdentityID, &rt.TokenHash, &rt.FamilyID,
		&rt.IssuedAt, &rt.ExpiresAt, &rt.RevokedAt, &rt.RotatedFrom,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// Revoke es el CAS de la rotación: el WHERE revoked_at IS NULL garantiza que
// de N presentaciones concurrentes del mismo token, exactamente una gana.
func (r *tokenRepo) Revoke(ctx context.Context, tokenID string) (bool, error) {
	const q = `UPDATE refresh_tokens SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`
	tag, err := r.pool.Exec(ctx, q, tokenID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *tokenRepo) RevokeFamily(ctx context.Context, familyID string) (int, error) {
	const q = `UPDATE refresh_tokens SET revoked_at = now() WHERE family_id = $1 AND revoked_at IS NULL`
	tag, err := r.pool.Exec(ctx, q, familyID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *tokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	const q = `UPDATE refresh_tokens SET revoked_at = now() WHERE token_hash = $1 AND revoked_at IS NULL`
	_, err := r.pool.Exec(ctx, q, tokenHash)
	return err
}

func (r *tokenRepo) RevokeAllByIdentity(ctx context.Context, identityID string) (int, error) {
	const q = `UPDATE refresh_tokens SET revoked_at = now() WHERE identity_id = $1 AND revoked_at IS NULL`
	tag, err := r.pool.Exec(ctx, q, identityID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// DeleteExpired purga registros vencidos hace más de retain.
// Pensado para un job periódico, no para el camino caliente.
func (r *tokenRepo) DeleteExpired(ctx context.Context, retain time.Duration) (int, error) {
	const q = `DELETE FROM refresh_tokens WHERE expires_at < now() - make_interval(secs => $1)`
	tag, err := r.pool.Exec(ctx, q, retain.Seconds())
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
