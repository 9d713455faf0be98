package lib

import "go.uber.org/zap"

// Diag is the line oriented diagnostic sink the whole core writes to. Trace
// lines follow normal flow (state changes, heartbeat, cycle summaries); Warn
// lines mark anomalies (failed attempts, timeouts, short writes).
type Diag interface {
	Tracef(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// ZapDiag is the production sink backed by a zap logger.
type ZapDiag struct {
	s *zap.SugaredLogger
}

func NewZapDiag(logger *zap.Logger) *ZapDiag {
	return &ZapDiag{s: logger.Sugar()}
}

func (d *ZapDiag) Tracef(format string, args ...interface{}) {
	d.s.Infof(format, args...)
}

func (d *ZapDiag) Warnf(format string, args ...interface{}) {
	d.s.Warnf(format, args...)
}

// NopDiag discards all output.
type NopDiag struct{}

func (NopDiag) Tracef(format string, args ...interface{}) {}

func (NopDiag) Warnf(format string, args ...interface{}) {}
