package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError reports malformed input: coordinates, roster entries or
// speed configuration. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Reason)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError is returned when a signal targets a (subscriber, event) pair
// without an active pickup request.
type NotFoundError struct {
	EventID      string
	SubscriberID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no active pickup request for subscriber %q on event %q", e.SubscriberID, e.EventID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError is returned when a dispatch for an event is already in flight.
type ConflictError struct {
	EventID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("dispatch already in progress for event %q", e.EventID)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
