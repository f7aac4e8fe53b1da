// Package observability provides logging, metrics, and tracing helpers.
package observability

import (
	"context"
	"log/slog"
)

// WSLogger writes structured lifecycle events for a WebSocket hub.
type WSLogger struct {
	hubName string
	logger  *slog.Logger
}

// NewWSLogger creates a WSLogger that tags every record with hubName.
func NewWSLogger(logger *slog.Logger, hubName string) *WSLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSLogger{hubName: hubName, logger: logger}
}

// LogConnect logs a WebSocket connection event.
func (l *WSLogger) LogConnect(ctx context.Context, userID uint, clients int) {
	l.logger.InfoContext(ctx, "websocket connected",
		slog.String("hub", l.hubName),
		slog.Uint64("user_id", uint64(userID)),
		slog.Int("user_clients", clients),
	)
}

// LogDisconnect logs a WebSocket disconnection event.
func (l *WSLogger) LogDisconnect(ctx context.Context, userID uint, reason string) {
	l.logger.InfoContext(ctx, "websocket disconnected",
		slog.String("hub", l.hubName),
		slog.Uint64("user_id", uint64(userID)),
		slog.String("reason", reason),
	)
}

// LogError logs a WebSocket error event.
func (l *WSLogger) LogError(ctx context.Context, userID uint, err error, eventType string) {
	l.logger.ErrorContext(ctx, "websocket error",
		slog.String("hub", l.hubName),
		slog.Uint64("user_id", uint64(userID)),
		slog.String("event_type", eventType),
		slog.String("error", err.Error()),
	)
}

// LogLifecycle logs a hub lifecycle event such as startup or shutdown.
func (l *WSLogger) LogLifecycle(ctx context.Context, event string, attrs ...any) {
	l.logger.InfoContext(ctx, "websocket lifecycle",
		append([]any{slog.String("hub", l.hubName), slog.String("event", event)}, attrs...)...,
	)
}
