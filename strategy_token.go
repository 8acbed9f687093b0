package authchain

import (
	"context"
	"crypto/ed25519"
	"errors"
	"log/slog"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/authchain/jwt"
)

// DefaultVerifyTimeout bounds one token verification.
const DefaultVerifyTimeout = 2 * time.Second

// TokenStrategyConfig configures a TokenStrategy.
type TokenStrategyConfig struct {
	// PrivateKey is the Ed25519 signing key, raw or PEM. Required.
	PrivateKey []byte
	// PublicKey defaults to the public half of PrivateKey.
	PublicKey []byte
	KeyID     string
	Issuer    string
	Audience  string
	Leeway    time.Duration
	Timeout   time.Duration

	AccessExtractor  TokenExtractor
	RefreshExtractor TokenExtractor
	// Revocation is consulted for every valid refresh token. Nil accepts all.
	Revocation RevocationCheck

	Now     func() time.Time
	Logger  *slog.Logger
	Metrics *Metrics
}

// TokenStrategy verifies access and refresh tokens. It never mints them;
// signing goes through the Registry with the key it exposes.
type TokenStrategy struct {
	name       string
	signingKey []byte
	keyID      string
	verifier   *jwt.Verifier
	timeout    time.Duration
	access     TokenExtractor
	refresh    TokenExtractor
	revocation RevocationCheck
	logger     *slog.Logger
	metrics    *Metrics
}

// NewTokenStrategy builds the jwt-auth strategy. The public key is derived
// from the private key when not given.
func NewTokenStrategy(cfg TokenStrategyConfig) (*TokenStrategy, error) {
	if len(cfg.PrivateKey) == 0 {
		return nil, errors.New("token strategy requires a signing key")
	}
	publicKey := cfg.PublicKey
	if len(publicKey) == 0 {
		priv, err := jwt.ParsePrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		publicKey = priv.Public().(ed25519.PublicKey)
	}

	verifier, err := jwt.NewVerifier(jwt.VerifierConfig{
		PublicKey: publicKey,
		Issuer:    cfg.Issuer,
		Audience:  cfg.Audience,
		KeyID:     cfg.KeyID,
		Leeway:    cfg.Leeway,
		Now:       cfg.Now,
	})
	if err != nil {
		return nil, err
	}

	s := &TokenStrategy{
		name:       StrategyToken,
		signingKey: cfg.PrivateKey,
		keyID:      cfg.KeyID,
		verifier:   verifier,
		timeout:    cfg.Timeout,
		access:     cfg.AccessExtractor,
		refresh:    cfg.RefreshExtractor,
		revocation: cfg.Revocation,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
	if s.timeout <= 0 {
		s.timeout = DefaultVerifyTimeout
	}
	if s.access == nil {
		s.access = defaultAccessExtractor()
	}
	if s.refresh == nil {
		s.refresh = defaultRefreshExtractor("")
	}
	if s.logger == nil {
		s.logger = discardLogger()
	}
	return s, nil
}

func (s *TokenStrategy) Name() string       { return s.name }
func (s *TokenStrategy) Variant() Variant   { return VariantToken }
func (s *TokenStrategy) SigningKey() []byte { return s.signingKey }
func (s *TokenStrategy) sealed()            {}

func (s *TokenStrategy) verifierKeyID() string { return s.keyID }

// Verify prefers the access token. A lone refresh token is verified and then
// handed to the revocation check, whose verdict is final.
func (s *TokenStrategy) Verify(ctx context.Context, req *Request) (*Verification, error) {
	start := time.Now()
	defer func() { s.metrics.Observe(MetricVerifyLatency, time.Since(start)) }()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var access string
	if !req.RefreshOnly {
		access = s.access(req)
	}
	if access != "" {
		claims := &jwt.AccessClaims{}
		if err := s.parse(ctx, access, claims); err != nil {
			return nil, s.failure(ctx, err)
		}
		return &Verification{Strategy: s.name, Token: access, Access: claims}, nil
	}

	refresh := s.refresh(req)
	if refresh == "" {
		return nil, ErrNoToken
	}
	claims := &jwt.RefreshClaims{}
	if err := s.parse(ctx, refresh, claims); err != nil {
		return nil, s.failure(ctx, err)
	}
	if s.revocation != nil {
		if err := s.revocation(ctx, refresh, claims); err != nil {
			return nil, asFailure(err)
		}
	}
	return &Verification{Strategy: s.name, Token: refresh, Refresh: claims}, nil
}

// parse runs signature verification off the caller's goroutine so the
// timeout holds even for pathological inputs.
func (s *TokenStrategy) parse(ctx context.Context, token string, claims gjwt.Claims) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- s.verifier.Parse(token, claims) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *TokenStrategy) failure(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		s.metrics.Inc(MetricVerifyTimeout)
		s.logger.WarnContext(ctx, "token verification timed out")
		return ErrVerifyTimeout.withCause(err)
	case errors.Is(err, context.Canceled):
		return ErrInvalidToken.withCause(err)
	case errors.Is(err, gjwt.ErrTokenExpired):
		return ErrTokenExpired.withCause(err)
	default:
		s.logger.DebugContext(ctx, "token rejected", slog.String("reason", err.Error()))
		return ErrInvalidToken.withCause(err)
	}
}
