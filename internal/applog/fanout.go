package applog

import (
	"context"
	"log/slog"
)

// fanOutHandler dispatches every record to each wrapped handler,
// letting the colorized stderr handler and a plain file handler run
// off the same slog.Logger.
type fanOutHandler struct {
	handlers []slog.Handler
}

func newFanOutHandler(handlers []slog.Handler) slog.Handler {
	return &fanOutHandler{handlers: handlers}
}

func (h *fanOutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanOutHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (h *fanOutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &fanOutHandler{handlers: next}
}

func (h *fanOutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &fanOutHandler{handlers: next}
}
