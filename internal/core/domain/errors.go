package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity with the same content hash
	// is already catalogued. Duplicate uploads are an expected outcome,
	// not a system fault.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrClassifierUnavailable indicates a classification strategy is not
	// configured or could not produce a result. The chain falls through to
	// the next strategy; this error never reaches API callers.
	ErrClassifierUnavailable = errors.New("classifier unavailable")
)
