package authchain

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel/trace"
)

// traceHandler adds service identity and the active trace/span ids to every
// record.
type traceHandler struct {
	handler slog.Handler
	service string
	version string
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(
		slog.String("service", h.service),
		slog.String("version", h.version),
	)
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", spanCtx.TraceID().String()))
	}
	if spanCtx.HasSpanID() {
		r.AddAttrs(slog.String("span_id", spanCtx.SpanID().String()))
	}
	return h.handler.Handle(ctx, r)
}

func (h *traceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{handler: h.handler.WithAttrs(attrs), service: h.service, version: h.version}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{handler: h.handler.WithGroup(name), service: h.service, version: h.version}
}

// NewLogger returns a JSON (or, with format "text", text) logger writing to
// w, or stderr when w is nil.
func NewLogger(service, version, format string, level slog.Level, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if format == "text" {
		base = slog.NewTextHandler(w, opts)
	} else {
		base = slog.NewJSONHandler(w, opts)
	}
	return slog.New(&traceHandler{handler: base, service: service, version: version})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// logError logs err at error level, expanding oops code and context.
func logError(ctx context.Context, logger *slog.Logger, msg string, err error) {
	attrs := []slog.Attr{slog.String("error", err.Error())}
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs = append(attrs, slog.Any("code", oopsErr.Code()))
		if domain := oopsErr.Domain(); domain != "" {
			attrs = append(attrs, slog.String("domain", domain))
		}
		for k, v := range oopsErr.Context() {
			attrs = append(attrs, slog.Any(k, v))
		}
	}
	logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}
