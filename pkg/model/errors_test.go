package model

import (
	"strings"
	"testing"
)

func TestAPIErrorError(t *testing.T) {
	err := NewNotFoundError("run", "run_123")
	if err.Code != ErrNotFound {
		t.Errorf("code = %s, want %s", err.Code, ErrNotFound)
	}
	if !strings.Contains(err.Error(), "run_123") {
		t.Errorf("message %q does not name the run", err.Error())
	}
}

func TestNewForbiddenError(t *testing.T) {
	err := NewForbiddenError("run", "run_abc")
	if err.Code != ErrForbidden {
		t.Errorf("code = %s, want %s", err.Code, ErrForbidden)
	}
}

func TestNewValidationErrorDetails(t *testing.T) {
	err := NewValidationError("missing required field",
		FieldError{Field: "model_id", Message: "model_id is required"})
	if len(err.Details) != 1 || err.Details[0].Field != "model_id" {
		t.Errorf("details = %+v, want one model_id entry", err.Details)
	}
}

func TestInvalidTransitionError(t *testing.T) {
	err := &InvalidTransitionError{RunID: "run_1", From: RunStateQueued, To: RunStateSucceeded}
	msg := err.Error()
	if !strings.Contains(msg, "queued") || !strings.Contains(msg, "succeeded") {
		t.Errorf("message %q does not name both states", msg)
	}
}
