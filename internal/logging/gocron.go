package logging

import (
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// gocronLogger implements gocron.Logger on top of a zap logger.
type gocronLogger struct {
	s *zap.SugaredLogger
}

// NewGocronLogger returns a logger that implements gocron.Logger.
//
//nolint:ireturn // Interface return is required by gocron's API contract
func NewGocronLogger(logger *zap.Logger) gocron.Logger {
	return &gocronLogger{s: logger.Named("scheduler").Sugar()}
}

func (l *gocronLogger) Debug(msg string, args ...any) { l.s.Debugw(msg, args...) }
func (l *gocronLogger) Info(msg string, args ...any)  { l.s.Infow(msg, args...) }
func (l *gocronLogger) Warn(msg string, args ...any)  { l.s.Warnw(msg, args...) }
func (l *gocronLogger) Error(msg string, args ...any) { l.s.Errorw(msg, args...) }
