package oauthstate

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// GenerateVerifier returns a PKCE code verifier: 32 random bytes in
// base64url without padding (43 chars, within RFC 7636's 43..128 range).
func GenerateVerifier() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}

// ChallengeS256 applies the S256 transform: base64url(sha256(verifier)),
// no padding.
func ChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// VerifyS256 checks a verifier against a previously committed challenge.
func VerifyS256(verifier, challenge string) bool {
	want := ChallengeS256(verifier)
	return subtle.ConstantTimeCompare([]byte(want), []byte(challenge)) == 1
}
