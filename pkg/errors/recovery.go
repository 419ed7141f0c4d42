package errors

import (
	"fmt"
	"runtime/debug"
)

// PanicError is an error built from a panic recovered inside a public
// estimator method (Fit, Predict, ...). It keeps the panic value and the
// stack at the point of recovery.
type PanicError struct {
	PanicValue interface{}
	StackTrace string
	Operation  string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// String includes the captured stack trace.
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s",
		e.Operation, e.PanicValue, e.StackTrace)
}

// NewPanicError creates a PanicError for operation, capturing the current stack.
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover converts a panic into an error assigned to *err. It must be
// deferred directly:
//
//	func (m *GeneralizedLinearRegressor) Fit(X, y mat.Matrix) (err error) {
//	    defer errors.Recover(&err, "GeneralizedLinearRegressor.Fit")
//	    ...
//	}
//
// gonum's mat package reports shape mismatches by panicking, so every
// public fitting entry point defers this.
func Recover(err *error, operation string) {
	if r := recover(); r != nil {
		if *err != nil {
			*err = fmt.Errorf("panic in %s: %v (original error: %w)", operation, r, *err)
			return
		}
		*err = NewPanicError(operation, r)
	}
}
