package jwt

import (
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// TokenKind discrimina el uso del token dentro del claim "token_type".
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims es el claim set fijo de los access tokens.
// sub = identity ID, fingerprint = handle público de la clave del cliente.
type Claims struct {
	jwtv5.RegisteredClaims
	Fingerprint string    `json:"fingerprint"`
	Kind        TokenKind `json:"token_type"`
}
