// Package logger provides structured logging for the game server.
// Every authoritative action taken by a room engine should be traceable
// through this.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap sugared logger behind the small surface the engines use.
type Logger struct {
	sugar *zap.SugaredLogger
}

// NewLogger creates a production logger writing JSON to stdout.
// level accepts zap level names ("debug", "info", "warn", "error");
// anything unparseable falls back to info.
func NewLogger(level string) *Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Build only fails on bad output paths; the static config has none.
		z = zap.NewNop()
	}
	return &Logger{sugar: z.Sugar()}
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// Info logs informational messages with optional key/value context.
func (l *Logger) Info(msg string, kv ...interface{}) {
	l.sugar.Infow(msg, kv...)
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string, kv ...interface{}) {
	l.sugar.Warnw(msg, kv...)
}

// Error logs error messages.
func (l *Logger) Error(msg string, kv ...interface{}) {
	l.sugar.Errorw(msg, kv...)
}

// Event logs an authoritative game event with its actor, for audit trails.
func (l *Logger) Event(eventType string, actorID string, kv ...interface{}) {
	kv = append([]interface{}{"event", eventType, "actor", actorID}, kv...)
	l.sugar.Infow("game event", kv...)
}

// Sync flushes buffered entries. Call on shutdown.
func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}
