package domain

import (
	"context"
	"time"
)

// ArchiveStore is the durable keyed storage of ArchivedOrder records.
// Implementations rely on the backend's own transaction semantics to
// serialize writes; a search started before a concurrent write completes is
// not required to observe it.
type ArchiveStore interface {
	// Init opens or creates the store. Idempotent. A failure leaves the
	// store in "archive disabled" mode (Ready reports false) and must not
	// crash the caller.
	Init(ctx context.Context) error
	Ready() bool

	// Put upserts records by composite key, best-effort per record, and
	// returns the number written. ArchivedAt of an existing key is kept.
	Put(ctx context.Context, records []ArchivedOrder) (int, error)

	// All returns every record in insertion order.
	All(ctx context.Context) ([]ArchivedOrder, error)

	// MatchField returns records whose given field contains term,
	// case-insensitively, in insertion order. For FieldPostcode the term
	// and the stored value are compared in normalized form.
	MatchField(ctx context.Context, field SearchField, term string) ([]ArchivedOrder, error)

	Count(ctx context.Context) (int, error)
	Stats(ctx context.Context) (ArchiveStats, error)
	Batches(ctx context.Context) ([]BatchInfo, error)

	// KeysOlderThan lists keys of records archived strictly before cutoff.
	KeysOlderThan(ctx context.Context, cutoff time.Time) ([]ArchiveKey, error)
	// Delete removes one record. Deletion is atomic per record only.
	Delete(ctx context.Context, key ArchiveKey) error

	// Clear empties the store. Irreversible.
	Clear(ctx context.Context) error
}
