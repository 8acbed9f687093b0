package authchain

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/MrEthical07/authchain/internal/audit"
	"github.com/MrEthical07/authchain/jwt"
	"github.com/MrEthical07/authchain/password"
)

// EnvPrefix prefixes every variable read by LoadConfigFromEnv.
const EnvPrefix = "AUTHCHAIN_"

// KeyMaterial holds PEM or raw key bytes. As text it accepts inline PEM or a
// path to a PEM file.
type KeyMaterial []byte

func (k *KeyMaterial) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*k = nil
		return nil
	}
	data, err := jwt.LoadKey(string(text))
	if err != nil {
		return err
	}
	*k = data
	return nil
}

// Config is the complete engine configuration. Build it with DefaultConfig
// or LoadConfigFromEnv and adjust before handing it to the Builder.
type Config struct {
	JWT        JWTConfig        `envPrefix:"JWT_"`
	Session    SessionConfig    `envPrefix:"SESSION_"`
	Revocation RevocationConfig `envPrefix:"REVOCATION_"`
	// SecretKey enables the secret-key strategy when set.
	SecretKey string          `env:"SECRET_KEY"`
	Password  password.Config `envPrefix:"PASSWORD_"`
	Audit     AuditConfig     `envPrefix:"AUDIT_"`
	Metrics   MetricsConfig   `envPrefix:"METRICS_"`
}

// JWTConfig holds signing keys, token claims and lifetimes.
type JWTConfig struct {
	PrivateKey    KeyMaterial   `env:"PRIVATE_KEY"`
	PublicKey     KeyMaterial   `env:"PUBLIC_KEY"`
	KeyID         string        `env:"KEY_ID"`
	Issuer        string        `env:"ISSUER" envDefault:"authchain"`
	Audience      string        `env:"AUDIENCE" envDefault:"authchain-api"`
	AccessTTL     time.Duration `env:"ACCESS_TTL" envDefault:"60m"`
	RefreshTTL    time.Duration `env:"REFRESH_TTL" envDefault:"168h"`
	Leeway        time.Duration `env:"LEEWAY" envDefault:"0s"`
	VerifyTimeout time.Duration `env:"VERIFY_TIMEOUT" envDefault:"2s"`
	RefreshCookie string        `env:"REFRESH_COOKIE" envDefault:"refresh_token"`
}

// SessionConfig tunes the session cache.
type SessionConfig struct {
	RedisPrefix string `env:"REDIS_PREFIX" envDefault:"acs"`
	// JanitorInterval applies to the in-memory cache only.
	JanitorInterval time.Duration `env:"JANITOR_INTERVAL" envDefault:"1m"`
}

// RevocationConfig tunes the revocation store and its read cache.
type RevocationConfig struct {
	RedisPrefix string `env:"REDIS_PREFIX" envDefault:"art"`
	// CacheEntries sizes the in-process cache of revoked tokens. Zero
	// disables it.
	CacheEntries int64 `env:"CACHE_ENTRIES" envDefault:"100000"`
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig = audit.Config

type MetricsConfig struct {
	Enabled           bool `env:"ENABLED" envDefault:"true"`
	LatencyHistograms bool `env:"LATENCY_HISTOGRAMS" envDefault:"true"`
}

// DefaultConfig returns production defaults without key material.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			Issuer:        "authchain",
			Audience:      "authchain-api",
			AccessTTL:     60 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			VerifyTimeout: DefaultVerifyTimeout,
			RefreshCookie: DefaultRefreshCookie,
		},
		Session: SessionConfig{
			RedisPrefix:     "acs",
			JanitorInterval: time.Minute,
		},
		Revocation: RevocationConfig{
			RedisPrefix:  "art",
			CacheEntries: 100_000,
		},
		Password: password.DefaultConfig(),
		Audit: AuditConfig{
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:           true,
			LatencyHistograms: true,
		},
	}
}

// LoadConfigFromEnv reads AUTHCHAIN_* variables over the defaults.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if len(c.JWT.PrivateKey) == 0 {
		return errors.New("JWT PrivateKey is required")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must exceed AccessTTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be within [0, 2m]")
	}
	if c.JWT.VerifyTimeout <= 0 {
		return errors.New("JWT VerifyTimeout must be > 0")
	}
	if c.JWT.Issuer == "" || c.JWT.Audience == "" {
		return errors.New("JWT Issuer and Audience are required")
	}
	if c.Revocation.CacheEntries < 0 {
		return errors.New("Revocation CacheEntries must be >= 0")
	}
	if c.Audit.BufferSize < 0 {
		return errors.New("Audit BufferSize must be >= 0")
	}
	if err := c.Password.Validate(); err != nil {
		return err
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
