package authchain

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/MrEthical07/authchain/jwt"
	"github.com/MrEthical07/authchain/revocation"
	"github.com/MrEthical07/authchain/session"
)

// ServiceConfig configures a TokenService.
type ServiceConfig struct {
	// Strategy names the registry entry that signs tokens.
	Strategy   string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	Now   func() time.Time
	NewID func() string
}

// TokenService mints, rotates and revokes token pairs.
type TokenService struct {
	cfg         ServiceConfig
	registry    *Registry
	cache       session.Cache
	revocations revocation.Store
	users       UserStore
	logger      *slog.Logger
	metrics     *Metrics
}

// NewTokenService wires the service to its collaborators. revocations may be
// nil only in tests that do not exercise logout.
func NewTokenService(cfg ServiceConfig, registry *Registry, cache session.Cache, revocations revocation.Store, users UserStore, logger *slog.Logger, metrics *Metrics) (*TokenService, error) {
	switch {
	case registry == nil:
		return nil, errors.New("token service requires a registry")
	case cache == nil:
		return nil, errors.New("token service requires a session cache")
	case users == nil:
		return nil, errors.New("token service requires a user store")
	case cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0:
		return nil, errors.New("token service requires positive token lifetimes")
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyToken
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &TokenService{
		cfg:         cfg,
		registry:    registry,
		cache:       cache,
		revocations: revocations,
		users:       users,
		logger:      logger,
		metrics:     metrics,
	}, nil
}

// IssueNewToken starts a login session for an active principal.
func (s *TokenService) IssueNewToken(ctx context.Context, p *Principal) (*TokenPair, error) {
	if p == nil {
		return nil, ErrUserNotFound
	}
	if !p.IsActive {
		return nil, ErrAccountInactive
	}
	pair, err := s.startSession(ctx, p)
	if err != nil {
		return nil, err
	}
	s.metrics.Inc(MetricSessionCreated)
	return pair, nil
}

// IssueRenewedToken rotates the session named by claims. The old entry is
// consumed atomically before anything is signed, so of several concurrent
// renewals with one refresh token exactly one succeeds; the rest, and any
// later attempt, fail with a SessionExpired failure.
func (s *TokenService) IssueRenewedToken(ctx context.Context, claims *jwt.RefreshClaims) (*TokenPair, error) {
	if claims == nil || claims.ID == "" {
		return nil, ErrRefreshRequired
	}

	userID, err := s.cache.Take(ctx, claims.ID)
	if errors.Is(err, session.ErrNotFound) {
		s.metrics.Inc(MetricSessionExpired)
		return nil, ErrSessionRestart
	}
	if err != nil {
		return nil, s.internal(ctx, "take session", err)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil && !errors.Is(err, ErrNoSuchUser) {
		return nil, s.internal(ctx, "resolve session user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.Active {
		return nil, ErrAccountInactive
	}

	pair, err := s.startSession(ctx, user.principal())
	if err != nil {
		return nil, err
	}
	s.metrics.Inc(MetricSessionRotated)
	return pair, nil
}

// RevokeToken ends the session named by claims and records token as
// permanently revoked. Both steps are idempotent, so a retry after a
// partial failure is safe.
func (s *TokenService) RevokeToken(ctx context.Context, token string, claims *jwt.RefreshClaims) (*RevokeResult, error) {
	if claims == nil || claims.ID == "" {
		return nil, ErrRefreshRequired
	}

	var errs []error
	if err := s.cache.Delete(ctx, claims.ID); err != nil {
		errs = append(errs, err)
	}
	if token != "" && s.revocations != nil {
		if err := s.revocations.Revoke(ctx, token); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, s.internal(ctx, "revoke session", errors.Join(errs...))
	}

	s.metrics.Inc(MetricSessionRevoked)
	return &RevokeResult{RefreshToken: "", ClearCredentials: true}, nil
}

// CheckRevocation is the token strategy's revocation callback. It fails
// closed: a store error rejects the token.
func (s *TokenService) CheckRevocation(ctx context.Context, token string, _ *jwt.RefreshClaims) error {
	if s.revocations == nil {
		return nil
	}
	revoked, err := s.revocations.IsRevoked(ctx, token)
	if err != nil {
		return s.internal(ctx, "check revocation", err)
	}
	if revoked {
		s.metrics.Inc(MetricRevokedTokenRejected)
		return ErrTokenRevoked
	}
	return nil
}

func (s *TokenService) startSession(ctx context.Context, p *Principal) (*TokenPair, error) {
	now := s.cfg.Now()
	sid := s.cfg.NewID()
	accessExp := now.Add(s.cfg.AccessTTL)
	refreshExp := now.Add(s.cfg.RefreshTTL)

	access := &jwt.AccessClaims{
		Roles:            p.Roles,
		RegisteredClaims: s.registered(sid, now, accessExp),
	}
	access.Subject = p.ID
	refresh := &jwt.RefreshClaims{RegisteredClaims: s.registered(sid, now, refreshExp)}

	accessToken, err := s.registry.SignToken(s.cfg.Strategy, access)
	if err != nil {
		return nil, s.signFailure(ctx, err)
	}
	refreshToken, err := s.registry.SignToken(s.cfg.Strategy, refresh)
	if err != nil {
		return nil, s.signFailure(ctx, err)
	}

	if err := s.cache.Put(ctx, sid, p.ID, s.cfg.RefreshTTL); err != nil {
		return nil, s.internal(ctx, "store session", err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		SessionID:        sid,
		UserID:           p.ID,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *TokenService) registered(sid string, now, exp time.Time) gjwt.RegisteredClaims {
	rc := gjwt.RegisteredClaims{
		ID:        sid,
		Issuer:    s.cfg.Issuer,
		IssuedAt:  gjwt.NewNumericDate(now),
		NotBefore: gjwt.NewNumericDate(now),
		ExpiresAt: gjwt.NewNumericDate(exp),
	}
	if s.cfg.Audience != "" {
		rc.Audience = gjwt.ClaimStrings{s.cfg.Audience}
	}
	return rc
}

// signFailure keeps UnsupportedStrategy visible as the wiring error it is;
// every other signing error becomes a generic server error.
func (s *TokenService) signFailure(ctx context.Context, err error) error {
	if errors.Is(err, ErrUnsupportedStrategy) {
		return err
	}
	return s.internal(ctx, "sign token", err)
}

func (s *TokenService) internal(ctx context.Context, op string, err error) error {
	s.metrics.Inc(MetricIssueFailure)
	logError(ctx, s.logger, op+" failed", err)
	return serverError(err)
}
