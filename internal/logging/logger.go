// Package logging builds the zap logger every component derives from.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps a configured level name to zap, defaulting to info.
func ParseLevel(name string) zapcore.Level {
	switch name {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// New builds the root logger. Format "text" selects zap's development
// encoder, anything else the JSON production encoder.
func New(level, format string) (*zap.Logger, error) {
	var logConfig zap.Config
	if format == "text" {
		logConfig = zap.NewDevelopmentConfig()
	} else {
		logConfig = zap.NewProductionConfig()
	}
	logConfig.Level = zap.NewAtomicLevelAt(ParseLevel(level))

	logger, err := logConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger config: %w", err)
	}

	// for any direct zap.L() uses
	zap.ReplaceGlobals(logger)

	return logger.Named("wa-router"), nil
}
