// Package common defines shared constants and sentinel errors used across
// OrderVault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal      = errors.New("internal error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrAlreadyExists = errors.New("already exists")

	// Key-protection errors. ErrWrongPassword is the only failure an unlock
	// attempt ever reports; it never says which layer rejected the password.
	ErrWrongPassword = errors.New("wrong password")

	// Envelope errors. ErrDecryptionFailed covers a wrong key, a corrupt
	// ciphertext, and a key that was not among the encryption targets.
	ErrDecryptionFailed = errors.New("decryption failed")

	// Workflow errors.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrPersistenceFailure     = errors.New("persistence failure")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
