package shared

import "errors"

var (
	// ErrNotFound indicates a referenced record is missing.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates invalid user input on save.
	ErrValidation = errors.New("validation failed")
	// ErrConstraintViolation indicates a delete blocked by existing references.
	ErrConstraintViolation = errors.New("record is still referenced")
	// ErrNotConvertible indicates a quote that has already been converted.
	ErrNotConvertible = errors.New("quote already converted")
	// ErrInvalidTransition indicates a disallowed document status change.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrCSRFTokenMissing occurs when the CSRF token is missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
