package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_ErrorMessagePriority(t *testing.T) {
	base := errors.New("base")
	err := &Error{Kind: KindValidation, Msg: "msg", Err: base}
	if err.Error() != "msg" {
		t.Fatalf("expected msg, got %q", err.Error())
	}
}

func TestError_ErrorFallsBackToWrapped(t *testing.T) {
	base := errors.New("base")
	err := &Error{Kind: KindValidation, Err: base}
	if err.Error() != "base" {
		t.Fatalf("expected base, got %q", err.Error())
	}
}

func TestError_ErrorFallsBackToKind(t *testing.T) {
	err := &Error{Kind: KindNotFound}
	if err.Error() != string(KindNotFound) {
		t.Fatalf("expected kind string, got %q", err.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	base := errors.New("base")
	err := &Error{Kind: KindConflict, Err: base}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to be reachable via errors.Is")
	}
}

func TestIs_MatchesWrappedKind(t *testing.T) {
	err := NotFound("x", nil)
	wrapped := fmt.Errorf("wrap: %w", err)
	if !Is(wrapped, KindNotFound) {
		t.Fatalf("expected Is to match wrapped kind")
	}
	if Is(wrapped, KindValidation) {
		t.Fatalf("expected Is to be false for different kind")
	}
}

func TestValidationList(t *testing.T) {
	if err := ValidationList(nil); err != nil {
		t.Fatalf("expected nil for empty list, got %v", err)
	}

	err := ValidationList([]string{"first", "second"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if err.Error() != "first" {
		t.Fatalf("expected headline to be first violation, got %q", err.Error())
	}
	if !Is(err, KindValidation) {
		t.Fatalf("expected validation kind")
	}
	got := Violations(err)
	if len(got) != 2 || got[1] != "second" {
		t.Fatalf("unexpected violations: %v", got)
	}
}

func TestViolations_NonAppError(t *testing.T) {
	if v := Violations(errors.New("plain")); v != nil {
		t.Fatalf("expected nil violations for plain error, got %v", v)
	}
}
