package props

import "go.uber.org/zap"

// ZapLogger reports resolutions and evaluations to a zap logger. Successful
// resolutions log at debug level, failures at warn.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger wraps logger. A nil logger yields a no-op logger.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{logger: logger.Named("props")}
}

// WithZapLogger routes both resolution and evaluator events to logger.
func WithZapLogger(logger *zap.Logger) Option {
	zl := NewZapLogger(logger)
	return func(cfg *viewConfig) {
		cfg.resolutionLogger = zl
		cfg.evaluatorLogger = zl
	}
}

// LogResolution implements ResolutionLogger.
func (l *ZapLogger) LogResolution(event ResolutionLogEvent) {
	fields := []zap.Field{
		zap.String("schema", event.Schema),
		zap.String("accessor", event.Accessor),
		zap.Duration("duration", event.Duration),
	}
	switch {
	case event.Delegated:
		fields = append(fields, zap.Bool("delegated", true))
	case event.Nested:
		fields = append(fields, zap.Bool("nested", true))
	default:
		fields = append(fields,
			zap.String("key", event.Key),
			zap.Bool("found", event.Found),
			zap.Bool("defaulted", event.Defaulted),
		)
	}
	if event.Err != nil {
		l.logger.Warn("property resolution failed", append(fields, zap.Error(event.Err))...)
		return
	}
	l.logger.Debug("property resolved", fields...)
}

// LogEvaluation implements EvaluatorLogger.
func (l *ZapLogger) LogEvaluation(event EvaluatorLogEvent) {
	fields := []zap.Field{
		zap.String("engine", event.Engine),
		zap.String("expr", event.Expr),
		zap.String("schema", event.Schema),
		zap.Duration("duration", event.Duration),
	}
	if event.Err != nil {
		l.logger.Warn("rule evaluation failed", append(fields, zap.Error(event.Err))...)
		return
	}
	l.logger.Debug("rule evaluated", fields...)
}
