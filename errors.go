package filekeep

import "errors"

var (
	// ErrNotFound is returned by record stores when a key has no record
	ErrNotFound = errors.New("not found")
	// ErrOwnershipViolation is returned when a caller mutates a record it does not own
	ErrOwnershipViolation = errors.New("only the owner can delete the file")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when authentication fails
	ErrUnauthorized = errors.New("unauthorized")
)
