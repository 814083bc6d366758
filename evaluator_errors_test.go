package props

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapEvaluationErrorCreatesMetadata(t *testing.T) {
	base := errors.New("boom")
	err := wrapEvaluationError("expr", "port > missing", "WebServer", base)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Engine != "expr" || evalErr.Expr != "port > missing" || evalErr.Schema != "WebServer" {
		t.Fatalf("unexpected metadata: %+v", evalErr)
	}
	if !errors.Is(err, base) {
		t.Fatalf("wrapped error should unwrap to base error")
	}
	want := `props: expr evaluate "port > missing" against WebServer: boom`
	if err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWrapEvaluationErrorAugmentsExisting(t *testing.T) {
	base := errors.New("compile failure")
	existing := &EvaluationError{Engine: "expr", Err: base}

	err := wrapEvaluationError("cel", "rule", "MyAppConfig", existing)
	if !errors.Is(err, base) {
		t.Fatalf("expected base error to unwrap")
	}
	if existing.Engine != "expr" {
		t.Fatalf("existing engine should not be overwritten, got %q", existing.Engine)
	}
	if existing.Expr != "rule" || existing.Schema != "MyAppConfig" {
		t.Fatalf("blanks should be filled: %+v", existing)
	}
}

func TestWrapEvaluatorErrorPrefixesOnce(t *testing.T) {
	err := wrapEvaluatorError("cel", errors.New("bad"))
	if err.Error() != "props: cel evaluator: bad" {
		t.Fatalf("unexpected message %q", err)
	}
	again := wrapEvaluatorError("expr", err)
	if strings.Count(again.Error(), "props:") != 1 {
		t.Fatalf("expected single prefix, got %q", again)
	}
	if wrapEvaluatorError("cel", nil) != nil {
		t.Fatalf("expected nil passthrough")
	}
}
