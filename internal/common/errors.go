// Package common defines shared constants and sentinel errors used across
// client and server layers of Versemark. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable marks local storage failures (quota, locked,
	// unusable database). Callers degrade to remote-only operation.
	ErrStoreUnavailable = errors.New("local store unavailable")

	// ErrRemoteRejected marks a terminal remote refusal (validation or
	// authorization). Retrying such a mutation can never succeed.
	ErrRemoteRejected = errors.New("remote rejected mutation")

	// ErrUnauthorized is returned for invalid or expired credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation marks a malformed or semantically invalid payload.
	ErrValidation = errors.New("validation failed")

	// ErrSyncInProgress is returned when a queue drain overlaps another.
	ErrSyncInProgress = errors.New("sync pass already in progress")
)
