package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		// pg | memory
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"storage"`

	Cache struct {
		// redis | memory
		Driver   string `yaml:"driver"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"cache"`

	JWT struct {
		Issuer     string `yaml:"issuer"`
		Audience   string `yaml:"audience"`
		KID        string `yaml:"kid"`
		AccessTTL  string `yaml:"access_ttl"`  // ej: "15m"
		RefreshTTL string `yaml:"refresh_ttl"` // ej: "168h"
		// SigningSeed es el seed ed25519 (base64 de 32 bytes), opcionalmente
		// cifrado con secretbox (formato nonce|ct). Vacío => clave efímera.
		SigningSeed string `yaml:"signing_seed"`
	} `yaml:"jwt"`

	Auth struct {
		ChallengeTTL string `yaml:"challenge_ttl"`  // ej: "5m"
		StateMaxAge  string `yaml:"state_max_age"`  // ej: "10m"
		PKCETTL      string `yaml:"pkce_ttl"`       // ej: "10m"
		OAuthCodeTTL string `yaml:"oauth_code_ttl"` // ej: "5m"
	} `yaml:"auth"`

	Providers map[string]Provider `yaml:"providers"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
	} `yaml:"rate"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"`                  // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"` // sólo dev
	} `yaml:"smtp"`

	Security struct {
		// OpsAlertEmail recibe los avisos de reuso de refresh tokens.
		OpsAlertEmail string `yaml:"ops_alert_email"`
	} `yaml:"security"`
}

// Provider describe un provider OAuth (github, discord).
type Provider struct {
	ClientID string `yaml:"client_id"`
	// ClientSecret puede venir cifrado con secretbox (formato nonce|ct).
	ClientSecret string   `yaml:"client_secret"`
	AuthURL      string   `yaml:"auth_url"`
	TokenURL     string   `yaml:"token_url"`
	RedirectURI  string   `yaml:"redirect_uri"`
	Scopes       []string `yaml:"scopes"`
}

// Load lee el YAML, aplica defaults y overrides de entorno.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "sa"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "silentalliance"
	}
	if c.JWT.Audience == "" {
		c.JWT.Audience = "silentalliance-api"
	}
	if c.JWT.KID == "" {
		c.JWT.KID = "sa-1"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "15m"
	}
	if c.JWT.RefreshTTL == "" {
		c.JWT.RefreshTTL = "168h"
	}
	if c.Auth.ChallengeTTL == "" {
		c.Auth.ChallengeTTL = "5m"
	}
	if c.Auth.StateMaxAge == "" {
		c.Auth.StateMaxAge = "10m"
	}
	if c.Auth.PKCETTL == "" {
		c.Auth.PKCETTL = "10m"
	}
	if c.Auth.OAuthCodeTTL == "" {
		c.Auth.OAuthCodeTTL = "5m"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.App.Env = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("CACHE_DRIVER"); v != "" {
		c.Cache.Driver = v
	}
	if v := os.Getenv("CACHE_ADDR"); v != "" {
		c.Cache.Addr = v
	}
	if v := os.Getenv("CACHE_PASSWORD"); v != "" {
		c.Cache.Password = v
	}
	if v := os.Getenv("CACHE_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.DB = n
		}
	}
	if v := os.Getenv("JWT_ISSUER"); v != "" {
		c.JWT.Issuer = v
	}
	if v := os.Getenv("JWT_SIGNING_SEED"); v != "" {
		c.JWT.SigningSeed = v
	}
	if v := os.Getenv("OPS_ALERT_EMAIL"); v != "" {
		c.Security.OpsAlertEmail = v
	}
}

func (c *Config) validate() error {
	if c.Storage.Driver == "pg" && strings.TrimSpace(c.Storage.DSN) == "" {
		return fmt.Errorf("config: storage.driver=pg requiere storage.dsn")
	}
	for _, f := range []struct{ name, val string }{
		{"jwt.access_ttl", c.JWT.AccessTTL},
		{"jwt.refresh_ttl", c.JWT.RefreshTTL},
		{"auth.challenge_ttl", c.Auth.ChallengeTTL},
		{"auth.state_max_age", c.Auth.StateMaxAge},
		{"auth.pkce_ttl", c.Auth.PKCETTL},
		{"auth.oauth_code_ttl", c.Auth.OAuthCodeTTL},
		{"rate.window", c.Rate.Window},
	} {
		if _, err := time.ParseDuration(f.val); err != nil {
			return fmt.Errorf("config: %s inválido: %w", f.name, err)
		}
	}
	return nil
}

// Duration helpers: los campos ya fueron validados en Load.

func (c *Config) AccessTTL() time.Duration   { return mustDur(c.JWT.AccessTTL) }
func (c *Config) RefreshTTL() time.Duration  { return mustDur(c.JWT.RefreshTTL) }
func (c *Config) ChallengeTTL() time.Duration { return mustDur(c.Auth.ChallengeTTL) }
func (c *Config) StateMaxAge() time.Duration { return mustDur(c.Auth.StateMaxAge) }
func (c *Config) PKCETTL() time.Duration     { return mustDur(c.Auth.PKCETTL) }
func (c *Config) OAuthCodeTTL() time.Duration { return mustDur(c.Auth.OAuthCodeTTL) }
func (c *Config) RateWindow() time.Duration  { return mustDur(c.Rate.Window) }

func mustDur(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
