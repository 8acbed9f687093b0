package authchain

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/authchain/internal/audit"
)

// Engine is the process-wide entry point. It is built once by Builder and
// safe for concurrent use.
type Engine struct {
	config   Config
	registry *Registry
	service  *TokenService
	logger   *slog.Logger
	metrics  *Metrics
	audit    *audit.Dispatcher
	now      func() time.Time
	closers  []func()
}

// Login authenticates username and password and starts a new session.
func (e *Engine) Login(ctx context.Context, req *Request) (*TokenPair, error) {
	v, err := e.registry.Authenticate(ctx, StrategyCredentials, req)
	if err != nil {
		e.finish(ctx, audit.EventLogin, MetricLoginFailure, req, nil, "", "", err)
		return nil, err
	}
	pair, err := e.service.IssueNewToken(ctx, v.Principal)
	if err != nil {
		e.finish(ctx, audit.EventLogin, MetricLoginFailure, req, v, "", "", err)
		return nil, err
	}
	e.finish(ctx, audit.EventLogin, MetricLoginSuccess, req, v, pair.SessionID, pair.UserID, nil)
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair. Only the refresh token
// of the request is considered.
func (e *Engine) Refresh(ctx context.Context, req *Request) (*TokenPair, error) {
	v, err := e.verifyRefresh(ctx, req)
	if err != nil {
		event := audit.EventRefresh
		if errors.Is(err, ErrTokenRevoked) {
			event = audit.EventRevokedRejected
		}
		e.finish(ctx, event, MetricRefreshFailure, req, nil, "", "", err)
		return nil, err
	}
	pair, err := e.service.IssueRenewedToken(ctx, v.Refresh)
	if err != nil {
		e.finish(ctx, audit.EventRefresh, MetricRefreshFailure, req, v, v.Refresh.ID, "", err)
		return nil, err
	}
	e.finish(ctx, audit.EventRefresh, MetricRefreshSuccess, req, v, pair.SessionID, pair.UserID, nil)
	return pair, nil
}

// Logout revokes the request's refresh token. A token that is already
// revoked counts as logged out.
func (e *Engine) Logout(ctx context.Context, req *Request) (*RevokeResult, error) {
	v, err := e.verifyRefresh(ctx, req)
	if errors.Is(err, ErrTokenRevoked) {
		e.finish(ctx, audit.EventLogout, MetricLogout, req, nil, "", "", nil)
		return &RevokeResult{ClearCredentials: true}, nil
	}
	if err != nil {
		e.finish(ctx, audit.EventLogout, MetricLogoutFailure, req, nil, "", "", err)
		return nil, err
	}
	res, err := e.service.RevokeToken(ctx, v.Token, v.Refresh)
	if err != nil {
		e.finish(ctx, audit.EventLogout, MetricLogoutFailure, req, v, v.Refresh.ID, "", err)
		return nil, err
	}
	e.finish(ctx, audit.EventLogout, MetricLogout, req, v, v.Refresh.ID, "", nil)
	return res, nil
}

// AuthorizeSecret checks the shared bootstrap secret.
func (e *Engine) AuthorizeSecret(ctx context.Context, req *Request) error {
	_, err := e.registry.Authenticate(ctx, StrategySecretKey, req)
	if err != nil {
		e.finish(ctx, audit.EventSecretKey, MetricSecretKeyFailure, req, nil, "", "", err)
		return err
	}
	e.finish(ctx, audit.EventSecretKey, MetricSecretKeySuccess, req, nil, "", "", nil)
	return nil
}

// Authenticate runs the named strategy without issuing anything.
func (e *Engine) Authenticate(ctx context.Context, name string, req *Request) (*Verification, error) {
	return e.registry.Authenticate(ctx, name, req)
}

func (e *Engine) verifyRefresh(ctx context.Context, req *Request) (*Verification, error) {
	r := Request{}
	if req != nil {
		r = *req
	}
	r.RefreshOnly = true

	v, err := e.registry.Authenticate(ctx, StrategyToken, &r)
	if err != nil {
		if errors.Is(err, ErrNoToken) {
			return nil, ErrRefreshRequired
		}
		return nil, err
	}
	if v.Refresh == nil {
		return nil, ErrRefreshRequired
	}
	return v, nil
}

// Registry exposes the strategy registry.
func (e *Engine) Registry() *Registry { return e.registry }

// Service exposes the token service.
func (e *Engine) Service() *TokenService { return e.service }

// Config returns a copy of the configuration the engine was built with.
func (e *Engine) Config() Config { return cloneConfig(e.config) }

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot { return e.metrics.Snapshot() }

// AuditDropped reports audit events discarded because the buffer was full.
func (e *Engine) AuditDropped() uint64 { return e.audit.Dropped() }

// Close flushes audit events and stops background goroutines owned by the
// engine. Stores passed in by the caller are left open.
func (e *Engine) Close() {
	e.audit.Close()
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}

// finish records the outcome of a flow. userID, when set, names the subject
// for flows whose verification carries none.
func (e *Engine) finish(ctx context.Context, event string, metric MetricID, req *Request, v *Verification, sessionID, userID string, err error) {
	e.metrics.Inc(metric)
	if e.audit == nil {
		return
	}

	ev := audit.Event{
		Timestamp: e.now(),
		Type:      event,
		SessionID: sessionID,
		UserID:    userID,
		Success:   err == nil,
	}
	if req != nil {
		ev.IP = sourceIP(ctx, req)
	}
	if v != nil {
		ev.Strategy = v.Strategy
		switch {
		case ev.UserID != "":
		case v.Principal != nil:
			ev.UserID = v.Principal.ID
		case v.Access != nil:
			ev.UserID = v.Access.Subject
		}
	}
	if err != nil {
		f := Public(err)
		ev.Kind = f.Kind.String()
		ev.Message = f.Message
	}
	e.audit.Emit(ctx, ev)
}
