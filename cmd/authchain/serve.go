package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/authchain"
	promexport "github.com/MrEthical07/authchain/metrics/export/prometheus"
	"github.com/MrEthical07/authchain/middleware"
	"github.com/MrEthical07/authchain/password"
	"github.com/MrEthical07/authchain/revocation/postgres"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo authentication HTTP server",
		Long: `Run an HTTP server exposing /login, /refresh, /logout, /accounts,
/me and /metrics on top of the engine. Users are held in memory and seeded
from the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadServerConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	serveFlags(cmd.Flags())
	return cmd
}

func runServe(ctx context.Context, cfg serverConfig) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger := authchain.NewLogger("authchain", version, cfg.Log.Format, level, os.Stderr)

	engineCfg, err := cfg.engineConfig()
	if err != nil {
		return err
	}

	rdb, closeRedis, err := connectRedis(ctx, cfg.Redis.URL, logger)
	if err != nil {
		return err
	}
	defer closeRedis()

	passwords, err := newPasswords(engineCfg.Password)
	if err != nil {
		return err
	}
	users := newUserStore(passwords)
	if err := users.seed(cfg.Users); err != nil {
		return err
	}

	cookie, err := middleware.NewRefreshCookie(middleware.CookieConfig{
		Name:       engineCfg.JWT.RefreshCookie,
		Domain:     cfg.Cookie.Domain,
		Production: cfg.Cookie.Production,
		SigningKey: []byte(cfg.Cookie.SigningKey),
	})
	if err != nil {
		return err
	}

	builder := authchain.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithUserStore(users).
		WithPasswordVerifier(passwords).
		WithLogger(logger).
		WithTokenExtractors(nil, cookie.Extractor())
	if cfg.Audit.Enabled {
		builder.WithAuditSink(authchain.NewLogSink(logger.With(slog.String("component", "audit"))))
	}
	if cfg.Postgres.URL != "" {
		pool, err := openPostgres(ctx, cfg.Postgres.URL, logger)
		if err != nil {
			return err
		}
		defer pool.Close()
		builder.WithRevocationStore(postgres.NewStore(pool))
	}

	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	metrics, err := promexport.Handler(engine)
	if err != nil {
		return fmt.Errorf("metrics handler: %w", err)
	}
	srv := &server{
		engine:         engine,
		users:          users,
		cookie:         cookie,
		logger:         logger,
		trustForwarded: cfg.TrustForwardedFor,
	}
	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.routes(metrics),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.Listen))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newPasswords(cfg password.Config) (*password.Chain, error) {
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

// connectRedis dials url, or starts an embedded miniredis when url is empty.
func connectRedis(ctx context.Context, url string, logger *slog.Logger) (redis.UniversalClient, func(), error) {
	if url == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start embedded redis: %w", err)
		}
		logger.Warn("no redis url configured, using embedded miniredis", slog.String("addr", mr.Addr()))
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		return client, func() { _ = client.Close(); mr.Close() }, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := ping(ctx, logger, "redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

// openPostgres applies migrations and returns a connected pool.
func openPostgres(ctx context.Context, url string, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := ping(ctx, logger, "postgres", pool.Ping); err != nil {
		pool.Close()
		return nil, err
	}
	if err := postgres.Migrate(url); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate revocation schema: %w", err)
	}
	return pool, nil
}

// ping retries fn with exponential backoff while a dependency starts up.
func ping(ctx context.Context, logger *slog.Logger, name string, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(5, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			logger.WarnContext(ctx, "dependency not ready", slog.String("dependency", name), slog.String("error", err.Error()))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("connect %s: %w", name, err)
	}
	return nil
}
