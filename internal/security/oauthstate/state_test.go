package oauthstate_test

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aadidesign/SilentAlliance/internal/security/oauthstate"
	"github.com/aadidesign/SilentAlliance/internal/security/signature"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func TestGenerateVerify_RoundTrip(t *testing.T) {
	m := oauthstate.New(secret, 10*time.Minute)

	state, nonce, err := m.Generate("github")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(nonce) != 32 {
		t.Fatalf("nonce len = %d, want 32 hex chars", len(nonce))
	}

	provider, err := m.Verify(state)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if provider != "github" {
		t.Fatalf("provider = %q, want github", provider)
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	m := oauthstate.New(secret, 10*time.Minute)
	state, _, _ := m.Generate("github")

	raw, _ := base64.StdEncoding.DecodeString(state)
	tampered := strings.Replace(string(raw), "github", "discor", 1)
	forged := base64.StdEncoding.EncodeToString([]byte(tampered))

	if _, err := m.Verify(forged); !errors.Is(err, oauthstate.ErrInvalidState) {
		t.Fatalf("got %v, want ErrInvalidState", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	m := oauthstate.New(secret, 10*time.Minute)
	other := oauthstate.New([]byte("otra-clave-distinta-de-32-bytes!"), 10*time.Minute)

	state, _, _ := m.Generate("github")
	if _, err := other.Verify(state); !errors.Is(err, oauthstate.ErrInvalidState) {
		t.Fatalf("got %v, want ErrInvalidState", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	m := oauthstate.New(secret, 10*time.Minute)

	// State con MAC válido pero timestamp viejo.
	payload := fmt.Sprintf("github:%d:%s", time.Now().Add(-time.Hour).Unix(), strings.Repeat("ab", 16))
	mac := signature.KeyedMACHex(secret, []byte(payload))[:32]
	stale := base64.StdEncoding.EncodeToString([]byte(payload + "." + mac))

	if _, err := m.Verify(stale); !errors.Is(err, oauthstate.ErrInvalidState) {
		t.Fatalf("got %v, want ErrInvalidState", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	m := oauthstate.New(secret, 10*time.Minute)
	for _, s := range []string{"", "no-base64!!", base64.StdEncoding.EncodeToString([]byte("sin-punto"))} {
		if _, err := m.Verify(s); !errors.Is(err, oauthstate.ErrInvalidState) {
			t.Errorf("Verify(%q) = %v, want ErrInvalidState", s, err)
		}
	}
}

func TestPKCE_S256(t *testing.T) {
	verifier, err := oauthstate.GenerateVerifier()
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	if len(verifier) != 43 {
		t.Fatalf("verifier len = %d, want 43", len(verifier))
	}

	ch := oauthstate.ChallengeS256(verifier)
	if !oauthstate.VerifyS256(verifier, ch) {
		t.Fatal("verifier must match its own challenge")
	}
	if oauthstate.VerifyS256(verifier+"x", ch) {
		t.Fatal("altered verifier must not match")
	}
}
