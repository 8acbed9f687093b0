package authchain

import (
	"io"
	"log/slog"

	"github.com/MrEthical07/authchain/internal/audit"
)

// Audit types re-exported from the dispatcher package.
type (
	AuditEvent = audit.Event
	AuditSink  = audit.Sink
)

// Audit event types.
const (
	AuditLogin           = audit.EventLogin
	AuditRefresh         = audit.EventRefresh
	AuditLogout          = audit.EventLogout
	AuditSecretKey       = audit.EventSecretKey
	AuditRevokedRejected = audit.EventRevokedRejected
)

// NewChannelSink returns a sink that buffers events on a channel.
func NewChannelSink(buffer int) *audit.ChannelSink { return audit.NewChannelSink(buffer) }

// NewJSONWriterSink returns a sink writing one JSON object per line.
func NewJSONWriterSink(w io.Writer) *audit.JSONWriterSink { return audit.NewJSONWriterSink(w) }

// NewLogSink returns a sink that logs events through logger.
func NewLogSink(logger *slog.Logger) AuditSink { return audit.LogSink{Logger: logger} }
