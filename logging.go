package props

import "time"

// ResolutionLogEvent describes one accessor invocation.
type ResolutionLogEvent struct {
	Schema    string
	Accessor  string
	Key       string
	Found     bool
	Defaulted bool
	Nested    bool
	Delegated bool
	Duration  time.Duration
	Err       error
}

// ResolutionLogger records accessor invocations.
type ResolutionLogger interface {
	LogResolution(ResolutionLogEvent)
}

// ResolutionLoggerFunc adapts a function to ResolutionLogger.
type ResolutionLoggerFunc func(ResolutionLogEvent)

// LogResolution implements ResolutionLogger.
func (f ResolutionLoggerFunc) LogResolution(event ResolutionLogEvent) {
	if f != nil {
		f(event)
	}
}

// EvaluatorLogEvent describes an evaluation attempt for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Schema   string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogResolution(ResolutionLogEvent) {}

func (noopLogger) LogEvaluation(EvaluatorLogEvent) {}

// WithResolutionLogger attaches a resolution logger.
func WithResolutionLogger(logger ResolutionLogger) Option {
	return func(cfg *viewConfig) {
		if logger == nil {
			cfg.resolutionLogger = noopLogger{}
			return
		}
		cfg.resolutionLogger = logger
	}
}

// WithEvaluatorLogger attaches an evaluator logger.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *viewConfig) {
		if logger == nil {
			cfg.evaluatorLogger = noopLogger{}
			return
		}
		cfg.evaluatorLogger = logger
	}
}
