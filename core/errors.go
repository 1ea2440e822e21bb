package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("invalid input")
	ErrIntegrity    = errors.New("inconsistent workflow data")
	ErrAlreadyVoted = errors.New("user has already voted in this state")
)

// A ValidationError is returned when the caller passed malformed input. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Kinds of objects which can be missing.
const (
	KindWorkflow   = "workflow"
	KindState      = "state"
	KindTransition = "transition"
	KindContent    = "content"
	KindRole       = "role"
	KindUser       = "user"
)

// A NotFoundError is returned by direct lookups, so callers can distinguish "false" from "unknown".
type NotFoundError struct {
	Kind string
	ID   string
}

func NewNotFoundError(kind string, id interface{}) *NotFoundError {
	return &NotFoundError{
		Kind: kind,
		ID:   fmt.Sprint(id),
	}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// IsNotFound returns whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// An IntegrityError describes an item whose workflow data could not be loaded during an action computation.
type IntegrityError struct {
	ContentID  int
	WorkflowID int
	StateID    int
	Err        error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("content %d (workflow %d, state %d): %v", e.ContentID, e.WorkflowID, e.StateID, e.Err)
}

func (e *IntegrityError) Unwrap() []error {
	return []error{ErrIntegrity, e.Err}
}
