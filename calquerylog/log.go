// Package calquerylog builds the zap logger used across the engine,
// grounded on artpromedia-email/services/calendar/main.go's
// initLogger: a level string from config maps onto a
// zap.NewProductionConfig with that level, and every subsystem gets
// its own Named() child so log lines can be filtered by component.
package calquerylog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-mode zap.Logger at the given level ("debug",
// "info", "warn", "error"; anything else defaults to info).
func New(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	return cfg.Build()
}

// DanglingReference logs the skip-and-log resolution of an Open
// Question: a CalendarIndex term names an event UID the store no
// longer holds.
func DanglingReference(logger *zap.Logger, family, term, uid string) {
	logger.Warn("dangling indexed event reference, skipping",
		zap.String("family", family),
		zap.String("term", term),
		zap.String("uid", uid))
}
