package jwt

import (
	"crypto/ed25519"
	"errors"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired se reporta por separado: los clientes reaccionan
	// distinto a un token vencido (refresh) que a uno inválido (re-login).
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid cubre firma inválida, claims inconsistentes y
	// cualquier token que no sea un access token de este issuer.
	ErrTokenInvalid = errors.New("invalid token")
)

// ParseAccess valida firma (EdDSA), iss, aud, exp y nbf, y exige que el
// claim token_type sea "access". Un refresh JWT jamás pasa como access,
// aunque la firma sea legítima: el chequeo de kind corre después de la
// validación criptográfica.
func (i *Issuer) ParseAccess(token string) (*Claims, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) {
		if kid, _ := t.Header["kid"].(string); kid != "" && kid != i.Keys.KID {
			return nil, ErrTokenInvalid
		}
		return ed25519.PublicKey(i.Keys.Pub), nil
	}

	var claims Claims
	tok, err := jwtv5.ParseWithClaims(token, &claims, keyfunc,
		jwtv5.WithValidMethods([]string{"EdDSA"}),
		jwtv5.WithIssuer(i.Iss),
		jwtv5.WithAudience(i.Aud),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tok.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Kind != KindAccess {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}
