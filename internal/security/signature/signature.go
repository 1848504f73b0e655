// Package signature implements the client-side identity primitives: ed25519
// detached-signature verification and public-key fingerprinting.
//
// Clients hold an ed25519 keypair and never share a password. The server only
// ever sees the 32-byte public key; its SHA-256 hex fingerprint is the stable
// public handle used everywhere else in the system.
package signature

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
)

const (
	// PublicKeySize is the exact ed25519 public key length accepted.
	PublicKeySize = ed25519.PublicKeySize // 32
	// SignatureSize is the exact detached signature length accepted.
	SignatureSize = ed25519.SignatureSize // 64
)

var (
	// ErrInvalidPublicKey indicates a malformed key (bad encoding or wrong length).
	ErrInvalidPublicKey = errors.New("invalid public key")
	// ErrInvalidSignature indicates a malformed signature (wrong length or bad encoding).
	// A well-formed signature that simply does not verify is NOT an error.
	ErrInvalidSignature = errors.New("invalid signature")
)

// VerifyDetached checks a detached ed25519 signature over message.
// Returns (false, nil) for a well-formed signature that does not verify;
// errors are reserved for malformed inputs.
func VerifyDetached(publicKey []byte, message []byte, sig []byte) (bool, error) {
	if len(publicKey) != PublicKeySize {
		return false, ErrInvalidPublicKey
	}
	if len(sig) != SignatureSize {
		return false, ErrInvalidSignature
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, sig), nil
}

// VerifyDetachedB64 is VerifyDetached over base64 (std) encoded key and signature,
// the encoding clients use on the wire.
func VerifyDetachedB64(publicKeyB64, message, sigB64 string) (bool, error) {
	pub, err := DecodePublicKey(publicKeyB64)
	if err != nil {
		return false, err
	}
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return false, ErrInvalidSignature
	}
	return VerifyDetached(pub, []byte(message), sig)
}

// DecodePublicKey decodes a base64 (std) public key and validates its length.
func DecodePublicKey(publicKeyB64 string) ([]byte, error) {
	pub, err := base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	if len(pub) != PublicKeySize {
		return nil, ErrInvalidPublicKey
	}
	return pub, nil
}

// Fingerprint returns the lowercase hex SHA-256 of the raw public key bytes.
// Always 64 characters; this is the pseudonymous public handle of an identity.
func Fingerprint(publicKey []byte) string {
	sum := sha256.Sum256(publicKey)
	return hex.EncodeToString(sum[:])
}
