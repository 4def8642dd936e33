// Package shared contains common domain types and errors used across all
// domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidID    = errors.New("invalid ID")
	ErrEmptyValue   = errors.New("value cannot be empty")

	// State errors
	ErrConflict        = errors.New("conflicting operation")
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")

	// Transaction errors
	ErrTransactionAborted     = errors.New("transaction aborted")
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "student", "assessment", "progression"
	Op      string // Operation that failed, e.g., "Resolve", "Submit"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Student domain errors
var (
	ErrStudentNotFound = NewDomainError("student", "Resolve", ErrNotFound, "student not found")
	ErrEmptyIdentifier = NewDomainError("student", "Resolve", ErrEmptyValue, "student identifier is empty")
)

// Assessment domain errors
var (
	ErrDefinitionNotFound   = NewDomainError("assessment", "Load", ErrNotFound, "assessment definition not found")
	ErrResponseNotFound     = NewDomainError("assessment", "Submit", ErrNotFound, "assessment was never started")
	ErrAssessmentInProgress = NewDomainError("assessment", "Start", ErrConflict, "an attempt is already in progress")
	ErrNoAnswers            = NewDomainError("assessment", "Submit", ErrInvalidInput, "submission contains no answers")
)

// Progression domain errors
var (
	ErrProgressNotFound     = NewDomainError("progression", "Load", ErrNotFound, "category progress not found")
	ErrProgressionNotFound  = NewDomainError("progression", "Load", ErrNotFound, "reading level progression not found")
	ErrUnknownReadingLevel  = NewDomainError("progression", "Validate", ErrInvalidInput, "unrecognized reading level")
	ErrUnknownCategory      = NewDomainError("progression", "Update", ErrNotFound, "category not found in progress record")
	ErrOpenHistoryViolation = NewDomainError("progression", "Advance", ErrInvalidState, "more than one open level history entry")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput checks if the error is a validation error.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrEmptyValue)
}

// IsConflict checks if the error is a conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrAlreadyExists)
}

// IsRetryable reports whether the operation can be retried inside a fresh
// transaction. Only transient write collisions qualify.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
