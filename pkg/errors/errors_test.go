package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Fit",
			kind:    "invalid input",
			err:     fmt.Errorf("test error"),
			wantMsg: "glmbench: Fit: invalid input: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not fitted",
			err:     nil,
			wantMsg: "glmbench: Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 3, 1)

	want := "glmbench: Predict: dimension mismatch on axis 1 (features). Expected 10, got 3"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Fatal("Error should be castable to *DimensionError")
	}
	if dimErr.Expected != 10 || dimErr.Got != 3 {
		t.Errorf("unexpected fields: %+v", dimErr)
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("GeneralizedLinearRegressorCV", "Predict")

	want := "glmbench: GeneralizedLinearRegressorCV: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("l1_ratio", "must be in [0, 1]", 1.5)

	want := "glmbench: validation failed for parameter 'l1_ratio': must be in [0, 1] (got: 1.5)"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var valErr *ValidationError
	if !As(err, &valErr) {
		t.Error("Error should be castable to *ValidationError")
	}
}

func TestNewNotImplementedError(t *testing.T) {
	err := NewNotImplementedError("bench.FitSparse", "unsupported distribution \"tweedie\"")

	if !Is(err, ErrNotImplemented) {
		t.Fatal("expected errors.Is(err, ErrNotImplemented)")
	}
	if !strings.Contains(err.Error(), "tweedie") {
		t.Errorf("message should name the distribution: %s", err.Error())
	}
}

func TestWarn_UsesHandler(t *testing.T) {
	var got []error
	prev := SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(prev)

	Warn(NewConvergenceWarning("cd", 100, ""))
	Warn(NewSkipWarning("fitsparse", "weights are not supported"))

	if len(got) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(got))
	}

	var conv *ConvergenceWarning
	if !As(got[0], &conv) || conv.Iterations != 100 {
		t.Errorf("first warning = %v, want ConvergenceWarning with 100 iterations", got[0])
	}

	want := "fitsparse skipped: weights are not supported"
	if got[1].Error() != want {
		t.Errorf("Error() = %q, want %q", got[1].Error(), want)
	}
}

func TestWarn_PrefersZerologFunc(t *testing.T) {
	handled, routed := 0, 0
	prev := SetWarningHandler(func(error) { handled++ })
	defer SetWarningHandler(prev)

	SetZerologWarnFunc(func(error) { routed++ })
	defer SetZerologWarnFunc(nil)

	Warn(NewSkipWarning("fitsparse", "too few rows"))

	if routed != 1 || handled != 0 {
		t.Errorf("routed = %d, handled = %d; want 1, 0", routed, handled)
	}
}

func TestCheckNumericalStability(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		wantErr bool
	}{
		{"finite", []float64{0, -1.5, 3e10}, false},
		{"nan", []float64{1, math.NaN()}, true},
		{"positive inf", []float64{math.Inf(1)}, true},
		{"negative inf", []float64{2, math.Inf(-1)}, true},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckNumericalStability("coef", tt.values, 2)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var instErr *NumericalInstabilityError
				if !As(err, &instErr) {
					t.Fatalf("expected *NumericalInstabilityError, got %T", err)
				}
				if instErr.Iteration != 2 {
					t.Errorf("Iteration = %d, want 2", instErr.Iteration)
				}
			}
		})
	}
}

func TestStabilizeExp(t *testing.T) {
	if v := StabilizeExp(1000); math.IsInf(v, 0) {
		t.Error("StabilizeExp should not overflow")
	}
	if v := StabilizeExp(-1000); v != 0 {
		t.Errorf("StabilizeExp(-1000) = %v, want 0", v)
	}
	if v := StabilizeExp(1); math.Abs(v-math.E) > 1e-15 {
		t.Errorf("StabilizeExp(1) = %v, want e", v)
	}
}

func TestStabilizeLog(t *testing.T) {
	if v := StabilizeLog(0); v != math.Log(LogFloor) {
		t.Errorf("StabilizeLog(0) = %v, want log(%g)", v, LogFloor)
	}
	if v := StabilizeLog(-1); math.IsNaN(v) || math.IsInf(v, 0) {
		t.Errorf("StabilizeLog(-1) = %v, want finite", v)
	}
	if v := StabilizeLog(math.E); v != 1 {
		t.Errorf("StabilizeLog(e) = %v, want 1", v)
	}
	if v := StabilizeLog(math.NaN()); !math.IsNaN(v) {
		t.Errorf("StabilizeLog(NaN) = %v, want NaN", v)
	}
}

func TestClipValue(t *testing.T) {
	tests := []struct {
		value, want float64
	}{
		{-1, 0},
		{0.25, 0.25},
		{2, 1},
	}
	for _, tt := range tests {
		if got := ClipValue(tt.value, 0, 1); got != tt.want {
			t.Errorf("ClipValue(%v, 0, 1) = %v, want %v", tt.value, got, tt.want)
		}
	}
	if got := ClipValue(math.NaN(), 0, 1); !math.IsNaN(got) {
		t.Errorf("ClipValue(NaN) = %v, want NaN", got)
	}
}
