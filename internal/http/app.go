// Package http compone el servidor a partir de la configuración: store,
// cache, claves de firma, servicios, controllers y router.
package http

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aadidesign/SilentAlliance/internal/cache"
	"github.com/aadidesign/SilentAlliance/internal/config"
	"github.com/aadidesign/SilentAlliance/internal/domain/repository"
	"github.com/aadidesign/SilentAlliance/internal/email"
	authctrl "github.com/aadidesign/SilentAlliance/internal/http/controllers/auth"
	healthctrl "github.com/aadidesign/SilentAlliance/internal/http/controllers/health"
	mw "github.com/aadidesign/SilentAlliance/internal/http/middlewares"
	"github.com/aadidesign/SilentAlliance/internal/http/router"
	authsvc "github.com/aadidesign/SilentAlliance/internal/http/services/auth"
	jwtx "github.com/aadidesign/SilentAlliance/internal/jwt"
	"github.com/aadidesign/SilentAlliance/internal/metrics"
	"github.com/aadidesign/SilentAlliance/internal/observability/logger"
	"github.com/aadidesign/SilentAlliance/internal/rate"
	"github.com/aadidesign/SilentAlliance/internal/security/oauthstate"
	"github.com/aadidesign/SilentAlliance/internal/security/secretbox"
	"github.com/aadidesign/SilentAlliance/internal/security/signature"
	memstore "github.com/aadidesign/SilentAlliance/internal/store/memory"
	pgstore "github.com/aadidesign/SilentAlliance/internal/store/pg"
)

// App agrupa los recursos vivos del servicio.
type App struct {
	Handler http.Handler
	Store   repository.Store
	Cache   cache.Client
	Issuer  *jwtx.Issuer
}

// NewApp construye la aplicación completa desde la configuración.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.L().With(logger.Component("http.app"))

	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	cacheClient, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Driver,
		Addr:     cfg.Cache.Addr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
		Prefix:   cfg.Cache.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	keys, err := loadSigningKeys(cfg)
	if err != nil {
		return nil, fmt.Errorf("signing keys: %w", err)
	}

	issuer := jwtx.NewIssuer(cfg.JWT.Issuer, cfg.JWT.Audience, keys)
	issuer.AccessTTL = cfg.AccessTTL()

	stateSecret, err := stateMACSecret()
	if err != nil {
		return nil, fmt.Errorf("state secret: %w", err)
	}

	var alerts email.Sender = email.Noop{}
	if cfg.SMTP.Host != "" && cfg.SMTP.From != "" {
		s := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
		if cfg.SMTP.TLS != "" {
			s.TLSMode = cfg.SMTP.TLS
		}
		s.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify
		alerts = s
	}

	services := authsvc.NewServices(authsvc.Deps{
		Store:        store,
		Cache:        cacheClient,
		Issuer:       issuer,
		State:        oauthstate.New(stateSecret, cfg.StateMaxAge()),
		RefreshTTL:   cfg.RefreshTTL(),
		ChallengeTTL: cfg.ChallengeTTL(),
		StateMaxAge:  cfg.StateMaxAge(),
		PKCETTL:      cfg.PKCETTL(),
		OAuthCodeTTL: cfg.OAuthCodeTTL(),
		Providers:    cfg.Providers,
		Alerts:       alerts,
		OpsEmail:     cfg.Security.OpsAlertEmail,
	})

	if err := metrics.Register(nil); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	handler := router.New(router.Deps{
		Auth:        authctrl.NewControllers(services, store.Identities()),
		Health:      healthctrl.NewController(store, cacheClient),
		Issuer:      issuer,
		RateLimiter: newRateLimiter(cfg, cacheClient, log),
	})

	return &App{
		Handler: handler,
		Store:   store,
		Cache:   cacheClient,
		Issuer:  issuer,
	}, nil
}

// Close libera store y cache.
func (a *App) Close() {
	if a.Store != nil {
		_ = a.Store.Close()
	}
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
}

// Start sirve hasta que el contexto se cancele y apaga con gracia.
func (a *App) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func newStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Storage.Driver {
	case "pg":
		return pgstore.New(ctx, cfg.Storage.DSN)
	default:
		return memstore.New(), nil
	}
}

// loadSigningKeys resuelve la clave de firma JWT. El seed puede venir en
// claro (base64) o cifrado con secretbox; sin seed se genera una clave
// efímera que no sobrevive reinicios.
func loadSigningKeys(cfg *config.Config) (*jwtx.KeySet, error) {
	seedB64 := cfg.JWT.SigningSeed
	if seedB64 == "" {
		logger.L().Warn("jwt signing seed not configured, using ephemeral key")
		return jwtx.NewEd25519(cfg.JWT.KID)
	}

	if secretbox.IsReady() {
		if dec, err := secretbox.Decrypt(seedB64); err == nil {
			seedB64 = dec
		}
	}

	seed, err := base64.StdEncoding.DecodeString(seedB64)
	if err != nil {
		return nil, fmt.Errorf("seed no es base64 válido: %w", err)
	}
	return jwtx.NewEd25519FromSeed(cfg.JWT.KID, seed)
}

// stateMACSecret deriva la subclave HMAC de los state tokens desde la
// master key de secretbox. Sin master key (dev) usa una aleatoria: los
// states no sobreviven reinicios.
func stateMACSecret() ([]byte, error) {
	if secretbox.IsReady() {
		master, err := secretbox.MasterKey()
		if err != nil {
			return nil, err
		}
		return signature.DeriveKey(master, "oauth-state-mac", 32)
	}

	logger.L().Warn("secretbox master key not configured, oauth states will not survive restarts")
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	return secret, nil
}

// newRateLimiter arma el limiter por IP sobre Redis. Con cache en memoria
// no hay backend compartido y el rate limiting queda desactivado.
func newRateLimiter(cfg *config.Config, cacheClient cache.Client, log *zap.Logger) mw.RateLimiter {
	if !cfg.Rate.Enabled {
		return nil
	}

	raw, ok := cacheClient.(interface{ Raw() *redis.Client })
	if !ok {
		log.Warn("rate limiting enabled but cache driver is not redis, disabling")
		return nil
	}

	limiter := rate.NewRedisLimiter(raw.Raw(), cfg.Cache.Prefix+":rl:", cfg.Rate.MaxRequests, cfg.RateWindow())
	return limiterAdapter{limiter}
}

// limiterAdapter traduce rate.Result al contrato del middleware.
type limiterAdapter struct {
	l rate.Limiter
}

func (a limiterAdapter) Allow(ctx context.Context, key string) (mw.RateLimitResult, error) {
	res, err := a.l.Allow(ctx, key)
	if err != nil {
		return mw.RateLimitResult{}, err
	}
	return mw.RateLimitResult{
		Allowed:     res.Allowed,
		Remaining:   res.Remaining,
		RetryAfter:  res.RetryAfter,
		WindowTTL:   res.WindowTTL,
		CurrentHits: res.CurrentHits,
	}, nil
}
