// Package logging defines the structured, context-aware logger used by the
// services. The concrete implementation wraps slog; the base *slog.Logger is
// shared with the HTTP access log so both streams carry the same format.
package logging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-chi/httplog/v2"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key-value pairs, e.g.:
//
//	log.Info(ctx, "user registered", "kind", kind, "user_id", id)
type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

// NewHTTPLogger builds the httplog request logger for the given service name.
func NewHTTPLogger(service string, json bool, level string) *httplog.Logger {
	return httplog.NewLogger(service, httplog.Options{
		JSON:             json,
		LogLevel:         ParseLevel(level),
		Concise:          true,
		MessageFieldName: "message",
	})
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
