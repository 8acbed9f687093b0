package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/MrEthical07/authchain"
)

// serverConfig is the serve command's configuration. Values come from, in
// increasing precedence: built-in defaults, AUTHCHAIN_* environment
// variables for engine settings, the YAML file, then explicitly set flags.
type serverConfig struct {
	Listen string `koanf:"listen"`
	// TrustForwardedFor reads client IPs from X-Forwarded-For. Enable only
	// behind a proxy that sets the header.
	TrustForwardedFor bool `koanf:"trust_forwarded_for"`

	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
	} `koanf:"log"`

	Redis struct {
		// URL empty starts an embedded miniredis, for demos only.
		URL              string `koanf:"url"`
		SessionPrefix    string `koanf:"session_prefix"`
		RevocationPrefix string `koanf:"revocation_prefix"`
	} `koanf:"redis"`

	Postgres struct {
		// URL set moves revocations from Redis to PostgreSQL.
		URL string `koanf:"url"`
	} `koanf:"postgres"`

	JWT struct {
		PrivateKey string        `koanf:"private_key"`
		PublicKey  string        `koanf:"public_key"`
		KeyID      string        `koanf:"key_id"`
		Issuer     string        `koanf:"issuer"`
		Audience   string        `koanf:"audience"`
		AccessTTL  time.Duration `koanf:"access_ttl"`
		RefreshTTL time.Duration `koanf:"refresh_ttl"`
		Leeway     time.Duration `koanf:"leeway"`
	} `koanf:"jwt"`

	SecretKey string `koanf:"secret_key"`

	Cookie struct {
		Production bool   `koanf:"production"`
		SigningKey string `koanf:"signing_key"`
		Domain     string `koanf:"domain"`
	} `koanf:"cookie"`

	Audit struct {
		Enabled bool `koanf:"enabled"`
	} `koanf:"audit"`

	Users []seedUser `koanf:"users"`
}

type seedUser struct {
	ID       string   `koanf:"id"`
	Username string   `koanf:"username"`
	Password string   `koanf:"password"`
	Roles    []string `koanf:"roles"`
	Disabled bool     `koanf:"disabled"`
}

func defaultServerConfig() serverConfig {
	var cfg serverConfig
	cfg.Listen = ":8080"
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	return cfg
}

// serveFlags registers the flags that may override the file. Flag names map
// to config keys by replacing dashes with dots.
func serveFlags(fs *pflag.FlagSet) {
	fs.String("listen", ":8080", "HTTP listen address")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "json", "log format (json, text)")
	fs.String("redis-url", "", "Redis URL; empty starts an embedded miniredis")
	fs.String("postgres-url", "", "PostgreSQL URL for durable revocations")
}

// loadServerConfig reads path (optional) and fs into a serverConfig.
func loadServerConfig(path string, fs *pflag.FlagSet) (serverConfig, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return serverConfig{}, fmt.Errorf("load config file: %w", err)
		}
	}
	if fs != nil {
		flagKey := func(f *pflag.Flag) (string, any) {
			return strings.ReplaceAll(f.Name, "-", "."), posflag.FlagVal(fs, f)
		}
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, flagKey), nil); err != nil {
			return serverConfig{}, fmt.Errorf("load flags: %w", err)
		}
	}

	cfg := defaultServerConfig()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return serverConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// engineConfig layers the file's engine settings over the environment.
func (c serverConfig) engineConfig() (authchain.Config, error) {
	cfg, err := authchain.LoadConfigFromEnv()
	if err != nil {
		return authchain.Config{}, err
	}

	if c.JWT.PrivateKey != "" {
		if err := cfg.JWT.PrivateKey.UnmarshalText([]byte(c.JWT.PrivateKey)); err != nil {
			return authchain.Config{}, fmt.Errorf("jwt.private_key: %w", err)
		}
	}
	if c.JWT.PublicKey != "" {
		if err := cfg.JWT.PublicKey.UnmarshalText([]byte(c.JWT.PublicKey)); err != nil {
			return authchain.Config{}, fmt.Errorf("jwt.public_key: %w", err)
		}
	}
	setString(&cfg.JWT.KeyID, c.JWT.KeyID)
	setString(&cfg.JWT.Issuer, c.JWT.Issuer)
	setString(&cfg.JWT.Audience, c.JWT.Audience)
	setDuration(&cfg.JWT.AccessTTL, c.JWT.AccessTTL)
	setDuration(&cfg.JWT.RefreshTTL, c.JWT.RefreshTTL)
	setDuration(&cfg.JWT.Leeway, c.JWT.Leeway)
	setString(&cfg.SecretKey, c.SecretKey)
	setString(&cfg.Session.RedisPrefix, c.Redis.SessionPrefix)
	setString(&cfg.Revocation.RedisPrefix, c.Redis.RevocationPrefix)
	if c.Audit.Enabled {
		cfg.Audit.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return authchain.Config{}, err
	}
	return cfg, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}
