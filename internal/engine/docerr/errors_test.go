package docerr

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestInvariantError(t *testing.T) {
	err := Invariant("mergeBlocks", "abc", "sibling must be a container")

	if got := err.Error(); got != "mergeBlocks abc: sibling must be a container" {
		t.Errorf("Error() = %q", got)
	}
	if err.Unwrap() != ErrInvariant {
		t.Error("Unwrap() should return ErrInvariant")
	}

	noKey := Invariantf("moveBlock", "", "%s cannot be moved next to itself", "block")
	if got := noKey.Error(); got != "moveBlock: block cannot be moved next to itself" {
		t.Errorf("Error() = %q", got)
	}
}

func TestValidationError(t *testing.T) {
	err := Validation("blocks[1]", "duplicate key")
	if got := err.Error(); got != "blocks[1]: duplicate key" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Error("should match ErrValidation")
	}

	wrapped := &ValidationError{Msg: "bad input", Err: io.ErrUnexpectedEOF}
	if got := wrapped.Error(); got != "bad input: unexpected EOF" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(wrapped, io.ErrUnexpectedEOF) {
		t.Error("should match cause")
	}
	if !errors.Is(wrapped, ErrValidation) {
		t.Error("should still match ErrValidation")
	}
}

func TestIsHelpers(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		invariant     bool
		validation    bool
		notApplicable bool
	}{
		{"invariant", Invariant("op", "k", "m"), true, false, false},
		{"wrapped invariant", fmt.Errorf("split: %w", Invariant("op", "k", "m")), true, false, false},
		{"validation", Validationf("p", "bad %d", 1), false, true, false},
		{"not applicable", ErrNotApplicable, false, false, true},
		{"wrapped not applicable", fmt.Errorf("x: %w", ErrNotApplicable), false, false, true},
		{"other", io.EOF, false, false, false},
		{"nil", nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsInvariant(tt.err); got != tt.invariant {
				t.Errorf("IsInvariant() = %v, want %v", got, tt.invariant)
			}
			if got := IsValidation(tt.err); got != tt.validation {
				t.Errorf("IsValidation() = %v, want %v", got, tt.validation)
			}
			if got := IsNotApplicable(tt.err); got != tt.notApplicable {
				t.Errorf("IsNotApplicable() = %v, want %v", got, tt.notApplicable)
			}
		})
	}
}

func TestErrorsDistinct(t *testing.T) {
	errs := []error{ErrInvariant, ErrValidation, ErrNotApplicable}
	for i := range errs {
		for j := range errs {
			if i != j && errors.Is(errs[i], errs[j]) {
				t.Errorf("%v should not match %v", errs[i], errs[j])
			}
		}
	}
}
