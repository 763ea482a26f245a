package filter

import (
	"errors"
	"fmt"
)

// EvaluationError reports a predicate that failed to compile or run.
type EvaluationError struct {
	Dialect Dialect
	Expr    string
	Err     error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("filter: %s expr=%q: %v", e.Dialect, e.Expr, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsEvaluationError returns true if err is or wraps an EvaluationError.
func IsEvaluationError(err error) bool {
	var ee *EvaluationError
	return errors.As(err, &ee)
}

func wrap(d Dialect, src string, err error) error {
	if err == nil {
		return nil
	}
	var ee *EvaluationError
	if errors.As(err, &ee) {
		return err
	}
	return &EvaluationError{Dialect: d, Expr: src, Err: err}
}

func asBool(d Dialect, src string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, wrap(d, src, fmt.Errorf("result is %T, want bool", v))
	}
	return b, nil
}
