package errors

import (
	"fmt"
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
			op:      "Regressor.Fit",
			kind:    "engine failure",
			err:     fmt.Errorf("test error"),
			wantMsg: "koala: Regressor.Fit: engine failure: test error",
		},
		{
			name:    "without original error",
			op:      "Regressor.Predict",
			kind:    "not fitted",
			wantMsg: "koala: Regressor.Predict: not fitted",
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
			if tt.err != nil && !Is(err, tt.err) {
				t.Error("ModelError should unwrap to its cause")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Setup", 10, 8, 0)

	want := "koala: Setup: dimension mismatch on axis 0 (rows). Expected 10, got 8"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Fatal("Error should be castable to *DimensionError")
	}
	if dimErr.Got != 8 {
		t.Errorf("Got = %d, want 8", dimErr.Got)
	}
}

func TestNewSchemaError(t *testing.T) {
	err := NewSchemaError("CategoricalTransformer.Transform", []string{"age", "city"})

	want := "koala: CategoricalTransformer.Transform: table is not compatible with the fitted scheme; missing feature(s): age, city"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var schemaErr *SchemaError
	if !As(err, &schemaErr) {
		t.Fatal("Error should be castable to *SchemaError")
	}
	if len(schemaErr.Missing) != 2 {
		t.Errorf("Missing = %v, want 2 names", schemaErr.Missing)
	}
}

func TestNewUnresolvedFeatureError(t *testing.T) {
	err := NewUnresolvedFeatureError("Regressor.Setup", "zip", []string{"age", "city"})

	if !strings.Contains(err.Error(), "'zip'") || !strings.Contains(err.Error(), "[age, city]") {
		t.Errorf("unexpected message: %v", err)
	}

	var unresolved *UnresolvedFeatureError
	if !As(err, &unresolved) {
		t.Error("Error should be castable to *UnresolvedFeatureError")
	}
}

func TestDataConversionErrorHint(t *testing.T) {
	err := NewDataConversionError("zone", "int64", "string")
	want := "koala: column 'zone' of type int64 cannot be converted to string"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}

	err = NewUndeclaredCategoricalError("name", "string")
	var convErr *DataConversionError
	if !As(err, &convErr) {
		t.Fatalf("Expected DataConversionError, got %T", err)
	}
	if convErr.ToType != "float64" {
		t.Errorf("Expected ToType float64, got %s", convErr.ToType)
	}
	if !strings.HasSuffix(err.Error(), "; declare it categorical") {
		t.Errorf("Expected categorical hint, got %q", err.Error())
	}
}

func TestNewValueError(t *testing.T) {
	err := NewValueError("ToIntScheme.Fit", "empty column")

	if err.Error() != "koala: ToIntScheme.Fit: empty column" {
		t.Errorf("Error() = %v", err.Error())
	}

	var valErr *ValueError
	if !As(err, &valErr) {
		t.Error("Error should be castable to *ValueError")
	}
}

func TestWarnings(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(func(w error) {})

	Warn(NewEmptyValidationWarning(0.01, 10))
	Warn(NewUnseenCategoryWarning("city", 3))

	if len(got) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(got))
	}
	if !strings.Contains(got[0].Error(), "validation skipped") {
		t.Errorf("unexpected warning text: %v", got[0])
	}
	if got[1].Error() != "column 'city': 3 value(s) unseen during fit were encoded as -1" {
		t.Errorf("unexpected warning text: %v", got[1])
	}
}

func TestWarnPrefersZerologFunc(t *testing.T) {
	var viaZerolog, viaHandler int
	SetWarningHandler(func(w error) { viaHandler++ })
	SetZerologWarnFunc(func(w error) { viaZerolog++ })
	defer SetZerologWarnFunc(nil)

	Warn(NewUnseenCategoryWarning("city", 1))

	if viaZerolog != 1 || viaHandler != 0 {
		t.Errorf("zerolog=%d handler=%d, want 1/0", viaZerolog, viaHandler)
	}
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrEmptyData, "in ToIntScheme.Fit")

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}
	if !strings.Contains(wrapped.Error(), "in ToIntScheme.Fit") {
		t.Error("Expected wrapped error to contain wrapping message")
	}

	wrappedf := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Setup", 10, 0)
	if !strings.Contains(wrappedf.Error(), "in Setup: expected 10, got 0") {
		t.Errorf("unexpected message %q", wrappedf.Error())
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("leaf_output", []float64{1, 2, 3}, 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	nan := 0.0
	nan = nan / nan
	err := CheckNumericalStability("leaf_output", []float64{1, nan}, 4)
	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Fatalf("expected NumericalInstabilityError, got %v", err)
	}
	if numErr.Iteration != 4 || numErr.Operation != "leaf_output" {
		t.Errorf("unexpected error fields: %+v", numErr)
	}
	if err := CheckScalar("metric", nan, 1); err == nil {
		t.Error("CheckScalar should reject NaN")
	}
}
