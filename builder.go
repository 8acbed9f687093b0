package authchain

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authchain/internal/audit"
	"github.com/MrEthical07/authchain/password"
	"github.com/MrEthical07/authchain/revocation"
	"github.com/MrEthical07/authchain/session"
)

// Builder assembles an Engine. It is single-use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users       UserStore
	passwords   PasswordVerifier
	cache       session.Cache
	revocations revocation.Store
	auditSink   AuditSink
	logger      *slog.Logger
	now         func() time.Time

	accessExtractor  TokenExtractor
	refreshExtractor TokenExtractor

	built bool
}

// New starts an Engine builder. Build may be called once.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces DefaultConfig. The config is validated by Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis backs the session cache and revocation store with Redis unless
// explicit implementations are supplied.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the user directory. Required.
func (b *Builder) WithUserStore(users UserStore) *Builder {
	b.users = users
	return b
}

// WithPasswordVerifier replaces the Argon2id/bcrypt chain built from
// Config.Password.
func (b *Builder) WithPasswordVerifier(v PasswordVerifier) *Builder {
	b.passwords = v
	return b
}

// WithSessionCache overrides the cache derived from the Redis client.
func (b *Builder) WithSessionCache(cache session.Cache) *Builder {
	b.cache = cache
	return b
}

// WithRevocationStore overrides the Redis revocation store. Without a Redis
// client it is required.
func (b *Builder) WithRevocationStore(store revocation.Store) *Builder {
	b.revocations = store
	return b
}

// WithAuditSink routes audit events to sink when auditing is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine logger. The default discards.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock replaces time.Now for issuance, validation and audit timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithTokenExtractors overrides how tokens are read from requests. Nil
// arguments keep the defaults.
func (b *Builder) WithTokenExtractors(access, refresh TokenExtractor) *Builder {
	b.accessExtractor = access
	b.refreshExtractor = refresh
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and registers every strategy. Any
// registration failure aborts the build.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}

	logger := b.logger
	if logger == nil {
		logger = discardLogger()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	e := &Engine{
		config:  cfg,
		logger:  logger,
		metrics: NewMetrics(cfg.Metrics),
		now:     now,
	}
	fail := func(err error) (*Engine, error) {
		e.Close()
		return nil, err
	}

	cache := b.cache
	switch {
	case cache != nil:
	case b.redis != nil:
		cache = session.NewRedisCache(b.redis, cfg.Session.RedisPrefix)
	default:
		mem := session.NewMemoryCache(cfg.Session.JanitorInterval, session.WithClock(now))
		e.closers = append(e.closers, func() { _ = mem.Close() })
		cache = mem
		logger.Warn("no redis client configured, sessions are process-local")
	}

	store := b.revocations
	if store == nil && b.redis != nil {
		store = revocation.NewRedisStore(b.redis, cfg.Revocation.RedisPrefix)
	}
	if store == nil {
		return fail(errors.New("revocation store required"))
	}
	if cfg.Revocation.CacheEntries > 0 {
		cached, err := revocation.NewCached(store, revocation.CacheConfig{MaxEntries: cfg.Revocation.CacheEntries})
		if err != nil {
			return fail(fmt.Errorf("revocation cache: %w", err))
		}
		e.closers = append(e.closers, cached.Close)
		store = cached
	}

	passwords := b.passwords
	if passwords == nil {
		chain, err := newPasswordChain(cfg.Password)
		if err != nil {
			return fail(err)
		}
		passwords = chain
	}

	e.registry = NewRegistry()
	service, err := NewTokenService(ServiceConfig{
		Strategy:   StrategyToken,
		Issuer:     cfg.JWT.Issuer,
		Audience:   cfg.JWT.Audience,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		Now:        now,
	}, e.registry, cache, store, b.users, logger, e.metrics)
	if err != nil {
		return fail(err)
	}
	e.service = service

	credentials, err := NewCredentialStrategy(b.users, passwords, logger)
	if err != nil {
		return fail(err)
	}
	refreshExtractor := b.refreshExtractor
	if refreshExtractor == nil {
		refreshExtractor = defaultRefreshExtractor(cfg.JWT.RefreshCookie)
	}
	tokens, err := NewTokenStrategy(TokenStrategyConfig{
		PrivateKey:       cfg.JWT.PrivateKey,
		PublicKey:        cfg.JWT.PublicKey,
		KeyID:            cfg.JWT.KeyID,
		Issuer:           cfg.JWT.Issuer,
		Audience:         cfg.JWT.Audience,
		Leeway:           cfg.JWT.Leeway,
		Timeout:          cfg.JWT.VerifyTimeout,
		AccessExtractor:  b.accessExtractor,
		RefreshExtractor: refreshExtractor,
		Revocation:       service.CheckRevocation,
		Now:              now,
		Logger:           logger,
		Metrics:          e.metrics,
	})
	if err != nil {
		return fail(fmt.Errorf("token strategy: %w", err))
	}

	strategies := []Strategy{credentials, tokens}
	if cfg.SecretKey != "" {
		secret, err := NewSecretKeyStrategy(cfg.SecretKey)
		if err != nil {
			return fail(err)
		}
		strategies = append(strategies, secret)
	}
	for _, s := range strategies {
		if err := e.registry.Register(s); err != nil {
			return fail(err)
		}
	}

	e.audit = audit.NewDispatcher(cfg.Audit, b.auditSink)
	b.built = true
	logger.Info("authchain engine ready", slog.Any("strategies", e.registry.Names()))
	return e, nil
}

func newPasswordChain(cfg password.Config) (*password.Chain, error) {
	primary, err := password.NewArgon2(cfg)
	if err != nil {
		return nil, err
	}
	legacy, err := password.NewBcrypt(0)
	if err != nil {
		return nil, err
	}
	return password.NewChain(primary, legacy)
}
