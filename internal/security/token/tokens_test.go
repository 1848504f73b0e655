package tokens_test

import (
	"encoding/base64"
	"testing"

	tokens "github.com/aadidesign/SilentAlliance/internal/security/token"
)

func TestGenerateOpaqueToken(t *testing.T) {
	a, err := tokens.GenerateOpaqueToken(tokens.RefreshTokenBytes)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, _ := tokens.GenerateOpaqueToken(tokens.RefreshTokenBytes)
	if a == b {
		t.Fatal("dos tokens no deben coincidir")
	}

	raw, err := base64.RawURLEncoding.DecodeString(a)
	if err != nil {
		t.Fatalf("el token debe ser base64url sin padding: %v", err)
	}
	if len(raw) != tokens.RefreshTokenBytes {
		t.Fatalf("len = %d, want %d", len(raw), tokens.RefreshTokenBytes)
	}
}

func TestSHA256Hex(t *testing.T) {
	h := tokens.SHA256Hex("hola")
	if len(h) != 64 {
		t.Fatalf("len = %d, want 64", len(h))
	}
	if h != tokens.SHA256Hex("hola") {
		t.Fatal("hash must be deterministic")
	}
	if h == tokens.SHA256Hex("chau") {
		t.Fatal("different inputs must not collide")
	}
}
