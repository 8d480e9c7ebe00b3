// Package codec converts between the transient Order shape and the durable
// ArchivedOrder shape, and encodes/decodes the CSV backup format.
package codec

import (
	"time"

	"orderpick/internal/domain"
)

// ToArchived stamps an order for durable storage. ArchivedAt is set once
// here; the store keeps the original stamp when the same key is rewritten.
func ToArchived(order domain.Order, fileName string, now time.Time) domain.ArchivedOrder {
	return domain.ArchivedOrder{
		Order:      order,
		FileName:   fileName,
		ArchivedAt: now.UTC(),
	}
}

// ToOrder maps an archived record back into the live Order shape. Completed
// defaults to false when the archive never recorded it, which is already the
// zero value, so the embedded copy is returned as is.
func ToOrder(rec domain.ArchivedOrder) domain.Order {
	return rec.Order
}

// ToArchivedBatch converts a whole ingestion batch under one file name.
func ToArchivedBatch(orders []domain.Order, fileName string, now time.Time) []domain.ArchivedOrder {
	records := make([]domain.ArchivedOrder, 0, len(orders))
	for _, o := range orders {
		records = append(records, ToArchived(o, fileName, now))
	}
	return records
}
