package core

import "go.uber.org/zap"

// ZapLogger adapts a *zap.SugaredLogger to the Logger interface, so callers
// already standardized on zap elsewhere in their service can plug it
// straight into a Scheduler via WithLogger.
type ZapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger wraps z. A nil z falls back to zap.NewNop().
func NewZapLogger(z *zap.Logger) *ZapLogger {
	if z == nil {
		z = zap.NewNop()
	}
	return &ZapLogger{s: z.Sugar()}
}

func (l *ZapLogger) Debug(msg string, fields ...Field) {
	l.s.Debugw(msg, toZapArgs(fields)...)
}

func (l *ZapLogger) Info(msg string, fields ...Field) {
	l.s.Infow(msg, toZapArgs(fields)...)
}

func (l *ZapLogger) Warn(msg string, fields ...Field) {
	l.s.Warnw(msg, toZapArgs(fields)...)
}

func (l *ZapLogger) Error(msg string, fields ...Field) {
	l.s.Errorw(msg, toZapArgs(fields)...)
}

func toZapArgs(fields []Field) []any {
	args := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		args = append(args, f.Key, f.Value)
	}
	return args
}
