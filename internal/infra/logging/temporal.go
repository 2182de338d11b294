package logging

import (
	"go.temporal.io/sdk/log"
	"go.uber.org/zap"
)

// TemporalAdapter lets the Temporal client and workers log through zap.
type TemporalAdapter struct {
	s *zap.SugaredLogger
}

var _ log.Logger = (*TemporalAdapter)(nil)

func NewTemporalAdapter(z *ZapLogger) *TemporalAdapter {
	return &TemporalAdapter{s: z.l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (a *TemporalAdapter) Debug(msg string, keyvals ...interface{}) { a.s.Debugw(msg, keyvals...) }
func (a *TemporalAdapter) Info(msg string, keyvals ...interface{})  { a.s.Infow(msg, keyvals...) }
func (a *TemporalAdapter) Warn(msg string, keyvals ...interface{})  { a.s.Warnw(msg, keyvals...) }
func (a *TemporalAdapter) Error(msg string, keyvals ...interface{}) { a.s.Errorw(msg, keyvals...) }
