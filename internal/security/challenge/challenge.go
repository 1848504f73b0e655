// Package challenge builds and verifies the login challenges that clients
// sign to prove possession of their ed25519 private key.
//
// Wire format: "silentalliance:<unix_ts>:<nonce>" where nonce is 16 random
// bytes hex-encoded (32 chars). The string is opaque to clients; they sign
// the exact bytes they received.
package challenge

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aadidesign/SilentAlliance/internal/security/signature"
)

const (
	// Prefix namespaces challenges so a signature over one can never be
	// replayed against another deployment's format.
	Prefix = "silentalliance"

	// DefaultTTL is the window within which a challenge must be answered.
	DefaultTTL = 5 * time.Minute

	nonceBytes = 16
)

var (
	// ErrMalformed indicates the challenge string does not match the expected format.
	ErrMalformed = errors.New("malformed challenge")
	// ErrExpired indicates the challenge is older than the allowed window.
	ErrExpired = errors.New("challenge expired")
)

// Challenge is a parsed challenge string.
type Challenge struct {
	Raw      string
	IssuedAt time.Time
	Nonce    string
}

// New generates a fresh challenge bound to the current time.
func New() (Challenge, error) {
	var b [nonceBytes]byte
	if _, err := rand.Read(b[:]); err != nil {
		return Challenge{}, err
	}
	now := time.Now().UTC().Truncate(time.Second)
	nonce := hex.EncodeToString(b[:])
	return Challenge{
		Raw:      fmt.Sprintf("%s:%d:%s", Prefix, now.Unix(), nonce),
		IssuedAt: now,
		Nonce:    nonce,
	}, nil
}

// ExpiresAt returns the instant after which the challenge is no longer answerable.
func (c Challenge) ExpiresAt(ttl time.Duration) time.Time {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return c.IssuedAt.Add(ttl)
}

// Parse validates the structure of a challenge string.
func Parse(s string) (Challenge, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 || parts[0] != Prefix {
		return Challenge{}, ErrMalformed
	}
	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Challenge{}, ErrMalformed
	}
	nonce := parts[2]
	if len(nonce) != nonceBytes*2 {
		return Challenge{}, ErrMalformed
	}
	if _, err := hex.DecodeString(nonce); err != nil {
		return Challenge{}, ErrMalformed
	}
	return Challenge{Raw: s, IssuedAt: time.Unix(ts, 0).UTC(), Nonce: nonce}, nil
}

// VerifyResponse checks a client's signature over a challenge string.
//
// The challenge is re-parsed and its age re-checked even when the caller
// already matched it against stored state, so a stale value can never pass.
// Returns (false, nil) for a well-formed signature that does not verify.
func VerifyResponse(publicKey []byte, raw string, sig []byte, maxAge time.Duration) (bool, error) {
	ch, err := Parse(raw)
	if err != nil {
		return false, err
	}
	if maxAge <= 0 {
		maxAge = DefaultTTL
	}
	if time.Since(ch.IssuedAt) > maxAge {
		return false, ErrExpired
	}
	return signature.VerifyDetached(publicKey, []byte(raw), sig)
}
