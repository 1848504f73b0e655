// Package oauthstate implements self-authenticating OAuth state tokens and
// the S256 PKCE transform.
//
// A state token is "<provider>:<unix_ts>:<nonce>.<mac>" wrapped in standard
// base64, where nonce is 16 random bytes hex-encoded and mac is the hex of
// the first 16 bytes of HMAC-SHA256 over the payload. The MAC makes the
// token tamper-evident without server-side storage; the timestamp bounds
// its lifetime.
package oauthstate

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aadidesign/SilentAlliance/internal/security/signature"
)

const (
	// DefaultMaxAge is the window within which a state token remains valid.
	DefaultMaxAge = 10 * time.Minute

	nonceBytes = 16
	macHexLen  = 32 // first 16 bytes of the HMAC, hex-encoded
)

// ErrInvalidState covers every verification failure: bad encoding, bad
// structure, MAC mismatch, expiry. Callers must not distinguish them; a
// forged token and an expired one look identical to the client.
var ErrInvalidState = errors.New("invalid oauth state")

// Manager generates and verifies state tokens with a dedicated MAC secret.
type Manager struct {
	secret []byte
	maxAge time.Duration
}

// New creates a Manager. The secret should be an HKDF subkey derived for
// this purpose, never the raw master key.
func New(secret []byte, maxAge time.Duration) *Manager {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Manager{secret: secret, maxAge: maxAge}
}

// Generate returns the base64-wrapped state token and its nonce.
func (m *Manager) Generate(provider string) (state string, nonce string, err error) {
	var b [nonceBytes]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", "", err
	}
	nonce = hex.EncodeToString(b[:])
	payload := fmt.Sprintf("%s:%d:%s", provider, time.Now().UTC().Unix(), nonce)
	mac := signature.KeyedMACHex(m.secret, []byte(payload))[:macHexLen]
	state = base64.StdEncoding.EncodeToString([]byte(payload + "." + mac))
	return state, nonce, nil
}

// Verify checks structure, MAC and age, returning the embedded provider.
// Every failure is ErrInvalidState.
func (m *Manager) Verify(stateB64 string) (provider string, err error) {
	raw, err := base64.StdEncoding.DecodeString(stateB64)
	if err != nil {
		return "", ErrInvalidState
	}
	payload, gotMAC, ok := strings.Cut(string(raw), ".")
	if !ok || len(gotMAC) != macHexLen {
		return "", ErrInvalidState
	}
	wantMAC := signature.KeyedMACHex(m.secret, []byte(payload))[:macHexLen]
	if !hmac.Equal([]byte(gotMAC), []byte(wantMAC)) {
		return "", ErrInvalidState
	}

	parts := strings.Split(payload, ":")
	if len(parts) != 3 {
		return "", ErrInvalidState
	}
	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", ErrInvalidState
	}
	if time.Since(time.Unix(ts, 0)) > m.maxAge {
		return "", ErrInvalidState
	}
	return parts[0], nil
}
