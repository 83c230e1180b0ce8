// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrValidation indicates a missing or malformed required field.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the requested entity does not exist
	// or belongs to a different owner.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation
	// (e.g., duplicate category name for an owner).
	ErrAlreadyExists = errors.New("already exists")

	// ErrDecryption indicates ciphertext that cannot be decrypted with the
	// configured key. Recovered at the cipher boundary, never raised past it.
	ErrDecryption = errors.New("decryption error")
)
