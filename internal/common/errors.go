// Package common defines shared constants, sentinel errors and small
// utilities used across client and server layers of EncryptShare.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyFinished is returned by a conditional state update when the
	// record had already left the live state. The caller lost the race and
	// must not touch the stored object.
	ErrAlreadyFinished = errors.New("transfer already finished")

	// Service-level errors, mapped 1:1 to the client-visible taxonomy.
	ErrValidation   = errors.New("validation error")
	ErrAccessDenied = errors.New("access denied")
	ErrGone         = errors.New("gone")
	ErrStorage      = errors.New("storage failure")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrUnauthorized = errors.New("unauthorized")
)
