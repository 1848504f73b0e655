// Package auth contiene contracts para servicios de autenticación.
package auth

import (
	"context"
	"time"

	"github.com/aadidesign/SilentAlliance/internal/cache"
	"github.com/aadidesign/SilentAlliance/internal/config"
	"github.com/aadidesign/SilentAlliance/internal/domain/repository"
	"github.com/aadidesign/SilentAlliance/internal/email"
	dto "github.com/aadidesign/SilentAlliance/internal/http/dto/auth"
	jwtx "github.com/aadidesign/SilentAlliance/internal/jwt"
	"github.com/aadidesign/SilentAlliance/internal/security/oauthstate"
)

// Deps agrupa las dependencias compartidas de los servicios de auth.
type Deps struct {
	Store repository.Store
	Cache cache.Client

	Issuer *jwtx.Issuer
	State  *oauthstate.Manager

	RefreshTTL   time.Duration
	ChallengeTTL time.Duration
	StateMaxAge  time.Duration
	PKCETTL      time.Duration
	OAuthCodeTTL time.Duration

	Providers map[string]config.Provider

	// Alerts recibe avisos out-of-band cuando se detecta reuso de refresh
	// tokens. Noop cuando SMTP no está configurado.
	Alerts   email.Sender
	OpsEmail string
}

// RegisterService define el registro de identidades pseudónimas.
type RegisterService interface {
	// Register crea una identidad a partir de su clave pública ed25519 y
	// emite el primer challenge de login.
	Register(ctx context.Context, in dto.RegisterRequest) (*dto.RegisterResult, error)
}

// ChallengeService define la emisión de challenges de login.
type ChallengeService interface {
	// Challenge emite un challenge para un fingerprint ya registrado.
	Challenge(ctx context.Context, in dto.ChallengeRequest) (*dto.ChallengeResult, error)
}

// LoginService define el login por firma de challenge.
type LoginService interface {
	// Login verifica la firma del challenge pendiente y emite el par de
	// tokens (access JWT + refresh opaco, familia nueva).
	Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResult, error)
}

// RefreshService define la rotación de refresh tokens.
type RefreshService interface {
	// Refresh rota un refresh token: revoca el presentado y emite un par
	// nuevo dentro de la misma familia. Un token ya revocado dispara la
	// revocación de toda la familia.
	Refresh(ctx context.Context, in dto.RefreshRequest) (*dto.RefreshResult, error)
}

// LogoutService define la revocación explícita de sesiones.
type LogoutService interface {
	// Logout revoca el refresh token presentado. Idempotente.
	Logout(ctx context.Context, in dto.LogoutRequest) error

	// LogoutAll revoca todas las sesiones vigentes de la identidad dueña
	// del refresh token presentado. Devuelve cuántas revocó.
	LogoutAll(ctx context.Context, in dto.LogoutRequest) (int, error)
}

// OAuthService define el flujo de vinculación OAuth (state + PKCE).
type OAuthService interface {
	// Authorize construye la URL de autorización del provider con state
	// firmado y PKCE S256.
	Authorize(ctx context.Context, provider string) (*dto.OAuthAuthorizeResult, error)

	// Callback valida el state del provider y registra el authorization
	// code para el intercambio posterior.
	Callback(ctx context.Context, provider, state, code string) (*dto.OAuthCallbackResult, error)
}
