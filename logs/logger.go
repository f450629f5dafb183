package logs

import "go.uber.org/zap"

// Logger is the adapter interface the client packages use for optional
// debug logging. It accepts key/value variadic pairs to keep call sites
// concise and to decouple them from any particular structured-logging
// field type.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NewZapLogger wraps a zap logger into the Logger interface.
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		return &nopLogger{}
	}
	return &zapAdapter{sugar: l.Sugar()}
}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger { return &nopLogger{} }

type zapAdapter struct {
	sugar *zap.SugaredLogger
}

func (z *zapAdapter) Debug(msg string, args ...any) { z.sugar.Debugw(msg, args...) }
func (z *zapAdapter) Info(msg string, args ...any)  { z.sugar.Infow(msg, args...) }
func (z *zapAdapter) Warn(msg string, args ...any)  { z.sugar.Warnw(msg, args...) }
func (z *zapAdapter) Error(msg string, args ...any) { z.sugar.Errorw(msg, args...) }

type nopLogger struct{}

func (n *nopLogger) Debug(_ string, _ ...any) {}
func (n *nopLogger) Info(_ string, _ ...any)  {}
func (n *nopLogger) Warn(_ string, _ ...any)  {}
func (n *nopLogger) Error(_ string, _ ...any) {}
