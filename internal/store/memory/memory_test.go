package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aadidesign/SilentAlliance/internal/domain/repository"
	"github.com/aadidesign/SilentAlliance/internal/store/memory"
)

func TestIdentity_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	name := "anon"
	ident, err := s.Identities().Create(ctx, repository.CreateIdentityInput{
		PublicKey:   make([]byte, 32),
		Fingerprint: "fp-1",
		DisplayName: &name,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ident.ID == "" {
		t.Fatal("id must be assigned")
	}

	byFP, err := s.Identities().GetByFingerprint(ctx, "fp-1")
	if err != nil {
		t.Fatalf("get by fingerprint: %v", err)
	}
	if byFP.ID != ident.ID {
		t.Fatalf("id mismatch: %q != %q", byFP.ID, ident.ID)
	}

	byID, err := s.Identities().GetByID(ctx, ident.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID.Fingerprint != "fp-1" {
		t.Fatalf("fingerprint = %q", byID.Fingerprint)
	}

	if _, err := s.Identities().GetByFingerprint(ctx, "no-existe"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestIdentity_DuplicateFingerprintConflicts(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	in := repository.CreateIdentityInput{PublicKey: make([]byte, 32), Fingerprint: "fp-dup"}
	if _, err := s.Identities().Create(ctx, in); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := s.Identities().Create(ctx, in); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
}

func TestIdentity_SuspendAndKarma(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	ident, _ := s.Identities().Create(ctx, repository.CreateIdentityInput{PublicKey: make([]byte, 32), Fingerprint: "fp-s"})

	if err := s.Identities().SetSuspended(ctx, ident.ID, true); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if err := s.Identities().AdjustKarma(ctx, ident.ID, 7); err != nil {
		t.Fatalf("karma: %v", err)
	}

	got, _ := s.Identities().GetByID(ctx, ident.ID)
	if !got.Suspended {
		t.Fatal("must be suspended")
	}
	if got.Karma != 7 {
		t.Fatalf("karma = %d, want 7", got.Karma)
	}

	if err := s.Identities().SetSuspended(ctx, "no-existe", true); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func newToken(t *testing.T, s *memory.Store, identityID, hash, family string) string {
	t.Helper()
	id, err := s.Tokens().Create(context.Background(), repository.CreateRefreshTokenInput{
		IdentityID: identityID,
		TokenHash:  hash,
		FamilyID:   family,
		TTLSeconds: 3600,
	})
	if err != nil {
		t.Fatalf("token create: %v", err)
	}
	return id
}

func TestToken_RevokeIsSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	id := newToken(t, s, "ident-1", "hash-1", "fam-1")

	won, err := s.Tokens().Revoke(ctx, id)
	if err != nil || !won {
		t.Fatalf("first revoke: won=%v err=%v", won, err)
	}
	won, err = s.Tokens().Revoke(ctx, id)
	if err != nil || won {
		t.Fatalf("second revoke must lose: won=%v err=%v", won, err)
	}
}

func TestToken_RevokeConcurrent(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	id := newToken(t, s, "ident-1", "hash-c", "fam-c")

	const n = 16
	var wg sync.WaitGroup
	wins := make(chan bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := s.Tokens().Revoke(ctx, id)
			if err != nil {
				t.Errorf("revoke: %v", err)
				return
			}
			wins <- won
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for won := range wins {
		if won {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}
}

func TestToken_RevokeFamilyIsolation(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	newToken(t, s, "ident-1", "hash-a1", "fam-a")
	newToken(t, s, "ident-1", "hash-a2", "fam-a")
	newToken(t, s, "ident-1", "hash-b1", "fam-b")

	n, err := s.Tokens().RevokeFamily(ctx, "fam-a")
	if err != nil {
		t.Fatalf("revoke family: %v", err)
	}
	if n != 2 {
		t.Fatalf("revoked = %d, want 2", n)
	}

	other, _ := s.Tokens().GetByHash(ctx, "hash-b1")
	if other.Revoked() {
		t.Fatal("other family must stay alive")
	}

	// Segunda pasada: nada vigente queda en fam-a.
	n, _ = s.Tokens().RevokeFamily(ctx, "fam-a")
	if n != 0 {
		t.Fatalf("second pass revoked = %d, want 0", n)
	}
}

func TestToken_RevokeByHashIdempotent(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	newToken(t, s, "ident-1", "hash-x", "fam-x")

	if err := s.Tokens().RevokeByHash(ctx, "hash-x"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := s.Tokens().RevokeByHash(ctx, "hash-x"); err != nil {
		t.Fatalf("re-revoke: %v", err)
	}
	if err := s.Tokens().RevokeByHash(ctx, "no-existe"); err != nil {
		t.Fatalf("unknown hash must not error: %v", err)
	}

	rt, _ := s.Tokens().GetByHash(ctx, "hash-x")
	if !rt.Revoked() {
		t.Fatal("must be revoked")
	}
}

func TestToken_RevokeAllByIdentity(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	newToken(t, s, "ident-1", "h1", "f1")
	newToken(t, s, "ident-1", "h2", "f2")
	newToken(t, s, "ident-2", "h3", "f3")

	n, err := s.Tokens().RevokeAllByIdentity(ctx, "ident-1")
	if err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if n != 2 {
		t.Fatalf("revoked = %d, want 2", n)
	}

	keep, _ := s.Tokens().GetByHash(ctx, "h3")
	if keep.Revoked() {
		t.Fatal("other identity must keep its sessions")
	}
}

func TestToken_Expiry(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, err := s.Tokens().Create(ctx, repository.CreateRefreshTokenInput{
		IdentityID: "ident-1",
		TokenHash:  "hash-exp",
		FamilyID:   "fam-exp",
		TTLSeconds: 1,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rt, _ := s.Tokens().GetByHash(ctx, "hash-exp")
	if rt.Expired(time.Now().Add(2 * time.Second)) != true {
		t.Fatal("must report expired past its TTL")
	}
	if rt.Expired(time.Now()) {
		t.Fatal("must not be expired yet")
	}
}

func TestToken_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	// Vencido hace una hora.
	_, err := s.Tokens().Create(ctx, repository.CreateRefreshTokenInput{
		IdentityID: "ident-1",
		TokenHash:  "hash-viejo",
		FamilyID:   "fam-1",
		TTLSeconds: -3600,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	newToken(t, s, "ident-1", "hash-vivo", "fam-1")

	n, err := s.Tokens().DeleteExpired(ctx, 30*time.Minute)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged = %d, want 1", n)
	}

	if _, err := s.Tokens().GetByHash(ctx, "hash-viejo"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound tras la purga", err)
	}
	if _, err := s.Tokens().GetByHash(ctx, "hash-vivo"); err != nil {
		t.Fatalf("el token vigente debe sobrevivir: %v", err)
	}

	// Dentro de la ventana de retención no se purga nada.
	n, _ = s.Tokens().DeleteExpired(ctx, 240*time.Hour)
	if n != 0 {
		t.Fatalf("purged = %d, want 0 dentro de la retención", n)
	}
}
