package domain

import "errors"

// Stable error kinds surfaced by the use-case layer. The gateway maps each
// of these to a machine-readable code and HTTP status.
var (
	// ErrSessionNotFound: the session id does not exist (not retryable).
	ErrSessionNotFound = errors.New("session not found")

	// ErrAssignmentNotFound: the assignment id does not exist.
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrInvalidJoinKey: no assignment matches the presented join key.
	ErrInvalidJoinKey = errors.New("invalid join key")

	// ErrRateLimited: the caller exceeded a request quota and should back off.
	ErrRateLimited = errors.New("rate limited")

	// ErrConflictInProgress: another request holds the same idempotency key
	// and has not finished yet. Transient; the client should retry later
	// with the same key, not resubmit differently.
	ErrConflictInProgress = errors.New("request with this idempotency key is in progress")

	// ErrUnauthorized: missing or wrong teacher credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation: caller input failed validation.
	ErrValidation = errors.New("validation error")
)
