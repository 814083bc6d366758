package props

import (
	"errors"
	"fmt"
	"strings"
)

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine string
	Expr   string
	Schema string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("props: ")
	if e.Engine != "" {
		b.WriteString(e.Engine)
		b.WriteString(" ")
	}
	b.WriteString("evaluate ")
	if e.Expr == "" {
		b.WriteString("<empty>")
	} else {
		fmt.Fprintf(&b, "%q", e.Expr)
	}
	if e.Schema != "" {
		fmt.Fprintf(&b, " against %s", e.Schema)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) || strings.HasPrefix(err.Error(), "props:") {
		return err
	}
	return fmt.Errorf("props: %s evaluator: %w", engine, err)
}

// wrapEvaluationError attaches engine, expression and schema to err, filling
// only the blanks of an existing EvaluationError.
func wrapEvaluationError(engine, expr, schema string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Schema == "" {
			evalErr.Schema = schema
		}
		return evalErr
	}
	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Schema: schema,
		Err:    err,
	}
}
