// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ LoggerInterface = (*Logger)(nil)

type Logger struct {
	*zap.SugaredLogger

	security *SecurityLogger
}

func (l *Logger) Security() SecurityLoggerInterface {
	return l.security
}

// parseLevel maps LOG_LEVEL values, anything unknown is error.
func parseLevel(l string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn", "warning":
		return zap.WarnLevel
	default:
		return zap.ErrorLevel
	}
}

func productionConfig(lvl zapcore.Level) zap.Config {
	c := zap.NewProductionConfig()
	c.Level = zap.NewAtomicLevelAt(lvl)
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return c
}

func newLogger(app *zap.Logger, security *SecurityLogger) *Logger {
	return &Logger{
		SugaredLogger: app.Sugar(),
		security:      security,
	}
}

// NewLogger creates a JSON production logger at level l. Security events are
// written at info regardless of l.
func NewLogger(l string) *Logger {
	lvl := parseLevel(l)

	app := zap.Must(productionConfig(lvl).Build())
	app.Debug("Logger created")

	audit := zap.Must(productionConfig(zap.InfoLevel).Build())

	return newLogger(app, NewSecurityLogger(audit.Core(), lvl))
}

// NewNoopLogger discards everything, for tests and offline commands.
func NewNoopLogger() *Logger {
	return newLogger(zap.NewNop(), NewSecurityLogger(zapcore.NewNopCore(), zap.ErrorLevel))
}
