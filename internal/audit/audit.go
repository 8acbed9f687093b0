package audit

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Event types emitted by the engine.
const (
	EventLogin           = "login"
	EventRefresh         = "refresh"
	EventLogout          = "logout"
	EventSecretKey       = "secret_key"
	EventRevokedRejected = "revoked_token_rejected"
)

// Event records one authentication decision.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Strategy  string    `json:"strategy,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	IP        string    `json:"ip,omitempty"`
	Success   bool      `json:"success"`
	// Kind is the failure kind, empty on success.
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// Sink receives events from the dispatcher goroutine.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink discards events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink forwards events to a buffered channel, mostly for tests.
type ChannelSink struct {
	events chan Event
}

// NewChannelSink buffers up to buffer events for a reader of Events.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{events: make(chan Event, max(buffer, 1))}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes newline-delimited JSON.
type JSONWriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONWriterSink writes one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{enc: json.NewEncoder(w)}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(event)
}

// LogSink writes events as structured log records at info level.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Emit(ctx context.Context, event Event) {
	if s.Logger == nil {
		return
	}
	s.Logger.LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("type", event.Type),
		slog.String("strategy", event.Strategy),
		slog.String("user_id", event.UserID),
		slog.String("session_id", event.SessionID),
		slog.String("ip", event.IP),
		slog.Bool("success", event.Success),
		slog.String("kind", event.Kind),
	)
}
