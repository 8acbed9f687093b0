package authchain

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	priv, pub := testKeys(t)
	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = priv
	cfg.JWT.PublicKey = pub
	return cfg
}

func TestDefaultConfigNeedsOnlyKey(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing key to fail")
	}
	cfg = validConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.JWT.AccessTTL != time.Hour || cfg.JWT.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("unexpected lifetimes %v / %v", cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero access ttl", func(c *Config) { c.JWT.AccessTTL = 0 }},
		{"refresh not longer", func(c *Config) { c.JWT.RefreshTTL = c.JWT.AccessTTL }},
		{"negative leeway", func(c *Config) { c.JWT.Leeway = -time.Second }},
		{"large leeway", func(c *Config) { c.JWT.Leeway = 3 * time.Minute }},
		{"zero timeout", func(c *Config) { c.JWT.VerifyTimeout = 0 }},
		{"no issuer", func(c *Config) { c.JWT.Issuer = "" }},
		{"no audience", func(c *Config) { c.JWT.Audience = "" }},
		{"negative cache", func(c *Config) { c.Revocation.CacheEntries = -1 }},
		{"negative audit buffer", func(c *Config) { c.Audit.BufferSize = -1 }},
		{"weak argon2", func(c *Config) { c.Password.Memory = 1024 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	priv, _ := testKeys(t)
	keyPath := filepath.Join(t.TempDir(), "signing.pem")
	if err := os.WriteFile(keyPath, priv, 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AUTHCHAIN_JWT_PRIVATE_KEY", keyPath)
	t.Setenv("AUTHCHAIN_JWT_ACCESS_TTL", "15m")
	t.Setenv("AUTHCHAIN_JWT_ISSUER", "issuer.example")
	t.Setenv("AUTHCHAIN_SESSION_REDIS_PREFIX", "sess")
	t.Setenv("AUTHCHAIN_REVOCATION_CACHE_ENTRIES", "0")
	t.Setenv("AUTHCHAIN_SECRET_KEY", "bootstrap")
	t.Setenv("AUTHCHAIN_AUDIT_ENABLED", "true")
	t.Setenv("AUTHCHAIN_PASSWORD_TIME", "4")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if string(cfg.JWT.PrivateKey) != string(priv) {
		t.Fatal("private key not loaded from file")
	}
	switch {
	case cfg.JWT.AccessTTL != 15*time.Minute:
		t.Fatalf("AccessTTL = %v", cfg.JWT.AccessTTL)
	case cfg.JWT.Issuer != "issuer.example":
		t.Fatalf("Issuer = %q", cfg.JWT.Issuer)
	case cfg.JWT.Audience != "authchain-api":
		t.Fatalf("Audience = %q", cfg.JWT.Audience)
	case cfg.Session.RedisPrefix != "sess":
		t.Fatalf("Session prefix = %q", cfg.Session.RedisPrefix)
	case cfg.Revocation.CacheEntries != 0:
		t.Fatalf("CacheEntries = %d", cfg.Revocation.CacheEntries)
	case cfg.SecretKey != "bootstrap":
		t.Fatalf("SecretKey = %q", cfg.SecretKey)
	case !cfg.Audit.Enabled:
		t.Fatal("audit not enabled")
	case cfg.Password.Time != 4 || cfg.Password.Memory != 64*1024:
		t.Fatalf("password config = %+v", cfg.Password)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadConfigFromEnvInlinePEM(t *testing.T) {
	priv, _ := testKeys(t)
	t.Setenv("AUTHCHAIN_JWT_PRIVATE_KEY", string(priv))

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if string(cfg.JWT.PrivateKey) != strings.TrimSpace(string(priv)) {
		t.Fatal("inline PEM not preserved")
	}
}

func TestLoadConfigFromEnvErrors(t *testing.T) {
	t.Setenv("AUTHCHAIN_JWT_PRIVATE_KEY", filepath.Join(t.TempDir(), "missing.pem"))
	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatal("expected missing key file to fail")
	}

	t.Setenv("AUTHCHAIN_JWT_PRIVATE_KEY", "")
	t.Setenv("AUTHCHAIN_JWT_ACCESS_TTL", "soon")
	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatal("expected bad duration to fail")
	}
}

func TestEngineConfigIsACopy(t *testing.T) {
	cfg := validConfig(t)
	clone := cloneConfig(cfg)
	clone.JWT.PrivateKey[0] ^= 0xff
	if cfg.JWT.PrivateKey[0] == clone.JWT.PrivateKey[0] {
		t.Fatal("clone shares key bytes")
	}
}
