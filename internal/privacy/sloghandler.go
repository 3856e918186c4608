package privacy

import (
	"context"
	"log/slog"
)

// RedactingHandler wraps a slog.Handler and masks sensitive values in all
// string-valued attributes before passing them to the inner handler. This
// ensures content rejected by the gate never leaks into log output
// regardless of where the log call originates.
type RedactingHandler struct {
	inner slog.Handler
	gate  *Gate
	attrs []slog.Attr
}

// Compile-time check.
var _ slog.Handler = (*RedactingHandler)(nil)

// NewRedactingHandler creates a handler that wraps inner, applying the
// gate's detectors to every string attribute value and to the message.
func NewRedactingHandler(inner slog.Handler, gate *Gate) *RedactingHandler {
	return &RedactingHandler{inner: inner, gate: gate}
}

// Enabled delegates to the inner handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle masks string values in the record's attributes and message,
// then delegates to the inner handler.
func (h *RedactingHandler) Handle(ctx context.Context, record slog.Record) error {
	record.Message = h.gate.Redact(record.Message)

	masked := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	masked.AddAttrs(h.attrs...)
	record.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(h.redactAttr(a))
		return true
	})

	return h.inner.Handle(ctx, masked)
}

// WithAttrs returns a new handler with pre-resolved, masked attributes.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.redactAttr(a)
	}
	return &RedactingHandler{
		inner: h.inner.WithAttrs(masked),
		gate:  h.gate,
	}
}

// WithGroup returns a new handler with the given group name.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{
		inner: h.inner.WithGroup(name),
		gate:  h.gate,
	}
}

// redactAttr recursively masks string values in an attribute.
func (h *RedactingHandler) redactAttr(a slog.Attr) slog.Attr {
	// Resolve first so LogValuer, error, and fmt.Stringer types are
	// converted to their final representation.
	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindString:
		a.Value = slog.StringValue(h.gate.Redact(a.Value.String()))
	case slog.KindGroup:
		attrs := a.Value.Group()
		masked := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			masked[i] = h.redactAttr(ga)
		}
		a.Value = slog.GroupValue(masked...)
	case slog.KindAny:
		resolved := a.Value.String()
		if masked := h.gate.Redact(resolved); masked != resolved {
			a.Value = slog.StringValue(masked)
		}
	}
	return a
}
