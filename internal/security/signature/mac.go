package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeyedMAC computes HMAC-SHA256 over data with the given secret.
func KeyedMAC(secret, data []byte) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write(data)
	return h.Sum(nil)
}

// KeyedMACHex is KeyedMAC hex-encoded.
func KeyedMACHex(secret, data []byte) string {
	return hex.EncodeToString(KeyedMAC(secret, data))
}

// VerifyMAC recomputes the MAC and compares in constant time.
func VerifyMAC(secret, data, mac []byte) bool {
	return hmac.Equal(KeyedMAC(secret, data), mac)
}

// DeriveKey expands the master key into an n-byte purpose-bound subkey via
// HKDF-SHA256. Distinct info strings yield independent keys, so the OAuth
// state MAC key cannot be confused with any other MAC use of the master key.
func DeriveKey(master []byte, info string, n int) ([]byte, error) {
	r := hkdf.New(sha256.New, master, nil, []byte(info))
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}
