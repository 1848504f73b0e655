package challenge_test

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aadidesign/SilentAlliance/internal/security/challenge"
)

func TestNew_FormatAndParse(t *testing.T) {
	ch, err := challenge.New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	parts := strings.Split(ch.Raw, ":")
	if len(parts) != 3 {
		t.Fatalf("raw = %q, want 3 segmentos", ch.Raw)
	}
	if parts[0] != challenge.Prefix {
		t.Fatalf("prefix = %q", parts[0])
	}
	if len(parts[2]) != 32 {
		t.Fatalf("nonce len = %d, want 32 hex chars", len(parts[2]))
	}

	parsed, err := challenge.Parse(ch.Raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Nonce != ch.Nonce {
		t.Fatalf("nonce roundtrip: %q != %q", parsed.Nonce, ch.Nonce)
	}
	if !parsed.IssuedAt.Equal(ch.IssuedAt) {
		t.Fatalf("issued_at roundtrip: %v != %v", parsed.IssuedAt, ch.IssuedAt)
	}
}

func TestNew_NoncesDiffer(t *testing.T) {
	a, _ := challenge.New()
	b, _ := challenge.New()
	if a.Nonce == b.Nonce {
		t.Fatal("dos challenges no deben compartir nonce")
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := []string{
		"",
		"silentalliance",
		"silentalliance:123",
		"otracosa:123:aabbccddeeff00112233445566778899",
		"silentalliance:noesnumero:aabbccddeeff00112233445566778899",
		"silentalliance:123:corto",
		"silentalliance:123:zzbbccddeeff00112233445566778899", // no-hex
		"silentalliance:123:aabbccddeeff00112233445566778899:extra",
	}
	for _, c := range cases {
		if _, err := challenge.Parse(c); !errors.Is(err, challenge.ErrMalformed) {
			t.Errorf("Parse(%q) = %v, want ErrMalformed", c, err)
		}
	}
}

func TestVerifyResponse_OK(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	ch, _ := challenge.New()
	sig := ed25519.Sign(priv, []byte(ch.Raw))

	ok, err := challenge.VerifyResponse(pub, ch.Raw, sig, time.Minute)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("expected signature over fresh challenge to verify")
	}
}

func TestVerifyResponse_Expired(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)

	old := fmt.Sprintf("%s:%d:%s", challenge.Prefix, time.Now().Add(-10*time.Minute).Unix(), strings.Repeat("ab", 16))
	sig := ed25519.Sign(priv, []byte(old))

	_, err := challenge.VerifyResponse(pub, old, sig, 5*time.Minute)
	if !errors.Is(err, challenge.ErrExpired) {
		t.Fatalf("got %v, want ErrExpired", err)
	}
}

func TestVerifyResponse_WrongKey(t *testing.T) {
	pub, _, _ := ed25519.GenerateKey(nil)
	_, otherPriv, _ := ed25519.GenerateKey(nil)

	ch, _ := challenge.New()
	sig := ed25519.Sign(otherPriv, []byte(ch.Raw))

	ok, err := challenge.VerifyResponse(pub, ch.Raw, sig, time.Minute)
	if err != nil {
		t.Fatalf("firma ajena bien formada no debe ser error: %v", err)
	}
	if ok {
		t.Fatal("signature from another key must not verify")
	}
}

func TestExpiresAt_DefaultTTL(t *testing.T) {
	ch, _ := challenge.New()
	want := ch.IssuedAt.Add(challenge.DefaultTTL)
	if !ch.ExpiresAt(0).Equal(want) {
		t.Fatalf("ExpiresAt(0) = %v, want %v", ch.ExpiresAt(0), want)
	}
}
