package jwt

import (
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer firma access tokens EdDSA con la clave activa del KeySet.
type Issuer struct {
	Iss       string
	Aud       string
	Keys      *KeySet
	AccessTTL time.Duration // ej: 15m
}

func NewIssuer(iss, aud string, ks *KeySet) *Issuer {
	return &Issuer{
		Iss:       iss,
		Aud:       aud,
		Keys:      ks,
		AccessTTL: 15 * time.Minute,
	}
}

// IssueAccess emite un access token para una identidad.
// Devuelve el JWT firmado, su jti y el instante de expiración.
func (i *Issuer) IssueAccess(identityID, fingerprint string) (signed string, jti string, exp time.Time, err error) {
	now := time.Now().UTC()
	exp = now.Add(i.AccessTTL)
	jti = uuid.NewString()

	claims := Claims{
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    i.Iss,
			Subject:   identityID,
			Audience:  jwtv5.ClaimStrings{i.Aud},
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
			ID:        jti,
		},
		Fingerprint: fingerprint,
		Kind:        KindAccess,
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = i.Keys.KID
	tk.Header["typ"] = "JWT"

	signed, err = tk.SignedString(i.Keys.Priv)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return signed, jti, exp, nil
}

// JWKSJSON expone el JWKS actual.
func (i *Issuer) JWKSJSON() []byte {
	return i.Keys.JWKSJSON()
}
