package middlewares

import (
	"context"

	jwtx "github.com/aadidesign/SilentAlliance/internal/jwt"
)

type ctxKey string

const (
	ctxClaimsKey     ctxKey = "claims"
	ctxIdentityIDKey ctxKey = "identity_id"
	ctxRequestIDKey  ctxKey = "request_id"
)

// WithClaims inyecta las claims del access token en el contexto.
func WithClaims(ctx context.Context, claims *jwtx.Claims) context.Context {
	return context.WithValue(ctx, ctxClaimsKey, claims)
}

// WithIdentityID inyecta el identity ID en el contexto.
func WithIdentityID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxIdentityIDKey, id)
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetClaims obtiene las claims del contexto.
// Retorna nil si no hay claims (token no validado o middleware no aplicado).
func GetClaims(ctx context.Context) *jwtx.Claims {
	if v := ctx.Value(ctxClaimsKey); v != nil {
		if c, ok := v.(*jwtx.Claims); ok {
			return c
		}
	}
	return nil
}

// GetIdentityID obtiene el identity ID del contexto.
// Retorna cadena vacía si no hay identidad autenticada.
func GetIdentityID(ctx context.Context) string {
	if v := ctx.Value(ctxIdentityIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetRequestID obtiene el request ID del contexto.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
