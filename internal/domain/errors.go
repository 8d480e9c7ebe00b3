package domain

import "errors"

var (
	// ErrNotFound — a lookup missed both the live list and the archive.
	ErrNotFound = errors.New("order not found")

	// ErrStorageUnavailable — the durable store could not be opened or is
	// not ready. Callers treat this as "archive disabled" and carry on.
	ErrStorageUnavailable = errors.New("archive storage unavailable")

	// ErrSearchUnavailable — a query arrived while the archive store is
	// not initialized. Surfaced as a not-found message, never a crash.
	ErrSearchUnavailable = errors.New("archive search unavailable")

	// ErrImportFormat — a backup file is missing its header row or yields
	// zero parsable rows. Nothing is written in that case.
	ErrImportFormat = errors.New("invalid archive backup format")

	// ErrRemoteUpdate — the remote order source rejected a status update.
	// The optimistic local change is reverted by the caller.
	ErrRemoteUpdate = errors.New("remote status update failed")
)
