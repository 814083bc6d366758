package props

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerRecordsResolutions(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	view := New(appSchema, NewStore(), WithZapLogger(zap.New(core)))

	_ = MustGet[string](view, "title")
	_ = view.MustNested("webServer")
	if _, err := view.Value("retries"); err != nil {
		t.Fatalf("retries: %v", err)
	}

	resolved := logs.FilterMessage("property resolved").All()
	if len(resolved) != 3 {
		t.Fatalf("expected three debug entries, got %d", len(resolved))
	}
	first := resolved[0].ContextMap()
	if first["schema"] != "MyAppConfig" || first["key"] != "title" || first["defaulted"] != true {
		t.Fatalf("unexpected fields %v", first)
	}
	if resolved[0].LoggerName != "props" {
		t.Fatalf("expected named logger, got %q", resolved[0].LoggerName)
	}
	if nested := resolved[1].ContextMap(); nested["nested"] != true {
		t.Fatalf("expected nested flag, got %v", nested)
	}
}

func TestZapLoggerWarnsOnFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	view := New(appSchema, NewStore(PropertiesLayer("file", map[string]string{"retries": "a,b"})), WithZapLogger(zap.New(core)))

	if _, err := view.Value("retries"); err == nil {
		t.Fatalf("expected conversion failure")
	}
	clean := New(appSchema, NewStore(), WithZapLogger(zap.New(core)))
	if _, err := clean.Evaluate("title =="); err == nil {
		t.Fatalf("expected evaluation failure")
	}

	failed := logs.FilterMessage("property resolution failed").All()
	if len(failed) != 1 || failed[0].Level != zapcore.WarnLevel {
		t.Fatalf("expected one warn entry, got %+v", failed)
	}
	if _, ok := failed[0].ContextMap()["error"]; !ok {
		t.Fatalf("expected error field")
	}
	if logs.FilterMessage("rule evaluation failed").Len() != 1 {
		t.Fatalf("expected evaluator failure to be logged")
	}
}

func TestNewZapLoggerNil(t *testing.T) {
	logger := NewZapLogger(nil)
	logger.LogResolution(ResolutionLogEvent{Schema: "S"})
	logger.LogEvaluation(EvaluatorLogEvent{Engine: "expr"})
}
