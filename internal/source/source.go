// Package source defines the capabilities the picking session depends on:
// remote order-management systems and uploaded-file parsing. Concrete
// remote semantics live behind these interfaces.
package source

import (
	"context"
	"io"

	"orderpick/internal/domain"
)

// Filter selects orders on the remote side. Status is matched exactly; Tag
// goes through the fuzzy matcher because remote systems scatter tags across
// loosely related fields with no defined precedence.
type Filter struct {
	Status string
	Tag    string
}

// OrderSource is a remote order-management system (Selro, Veeqo).
type OrderSource interface {
	// Name labels ingestion batches pulled from this source.
	Name() string
	GetOrdersByStatusOrTag(ctx context.Context, filter Filter) ([]domain.Order, error)
	// UpdateOrderStatus pushes a status change for one remote order. A
	// failure must not permanently strand local state: the caller reverts
	// its optimistic change.
	UpdateOrderStatus(ctx context.Context, remoteID, newStatus string) error
}

// FileParser turns an uploaded file into orders using an operator-chosen
// column mapping.
type FileParser interface {
	Parse(ctx context.Context, file io.Reader, mapping map[string]string, fileDate string) ([]domain.Order, error)
}
