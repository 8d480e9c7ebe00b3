package archive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"orderpick/internal/codec"
	"orderpick/internal/domain"
)

func newReadyMemory(t *testing.T) *Memory {
	t.Helper()
	s := NewMemory()
	require.NoError(t, s.Init(context.Background()))
	return s
}

func batch(fileName string, orders ...domain.Order) []domain.ArchivedOrder {
	return codec.ToArchivedBatch(orders, fileName, time.Now())
}

func TestMemoryNotReady(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	require.False(t, s.Ready())

	_, err := s.Put(ctx, batch("f1", domain.Order{OrderNumber: "A1", SKU: "S1"}))
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)

	_, err = s.All(ctx)
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestMemoryPutIdempotent(t *testing.T) {
	s := newReadyMemory(t)
	ctx := context.Background()

	orders := []domain.Order{
		{OrderNumber: "A1", SKU: "S1", CustomerName: "Ann"},
		{OrderNumber: "A2", SKU: "S2", CustomerName: "Bob"},
	}

	n, err := s.Put(ctx, batch("F1", orders...))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	// Same batch again: overwrite, not append.
	n, err = s.Put(ctx, batch("F1", orders...))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	total, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, total)
}

func TestMemoryDedupAcrossBatches(t *testing.T) {
	s := newReadyMemory(t)
	ctx := context.Background()

	order := domain.Order{OrderNumber: "A1", SKU: "S1"}

	_, err := s.Put(ctx, batch("F1", order))
	require.NoError(t, err)
	_, err = s.Put(ctx, batch("F2", order))
	require.NoError(t, err)

	// Same order under a different batch label is a distinct record.
	total, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, total)
}

func TestMemoryOverwriteKeepsArchivedAt(t *testing.T) {
	s := newReadyMemory(t)
	ctx := context.Background()

	first := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	order := domain.Order{OrderNumber: "A1", SKU: "S1", Location: "old"}

	_, err := s.Put(ctx, codec.ToArchivedBatch([]domain.Order{order}, "F1", first))
	require.NoError(t, err)

	order.Location = "new"
	_, err = s.Put(ctx, codec.ToArchivedBatch([]domain.Order{order}, "F1", first.Add(48*time.Hour)))
	require.NoError(t, err)

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "new", all[0].Location)
	require.Equal(t, first, all[0].ArchivedAt)
}

func TestMemoryInsertionOrder(t *testing.T) {
	s := newReadyMemory(t)
	ctx := context.Background()

	_, err := s.Put(ctx, batch("F1",
		domain.Order{OrderNumber: "A1", SKU: "S1"},
		domain.Order{OrderNumber: "A2", SKU: "S1"},
	))
	require.NoError(t, err)
	_, err = s.Put(ctx, batch("F2", domain.Order{OrderNumber: "A3", SKU: "S1"}))
	require.NoError(t, err)

	all, err := s.All(ctx)
	require.NoError(t, err)

	got := make([]string, 0, len(all))
	for _, rec := range all {
		got = append(got, rec.OrderNumber)
	}
	require.Equal(t, []string{"A1", "A2", "A3"}, got)
}

func TestMemoryMatchField(t *testing.T) {
	s := newReadyMemory(t)
	ctx := context.Background()

	_, err := s.Put(ctx, batch("F1",
		domain.Order{OrderNumber: "ORD-1", SKU: "SKU-RED", CustomerName: "Ann Lee", BuyerPostcode: "AB1 2CD"},
		domain.Order{OrderNumber: "ORD-2", SKU: "SKU-BLUE", CustomerName: "Bob May"},
		// NBSP and tab between outward and inward codes; normalization
		// must treat them like a plain space.
		domain.Order{OrderNumber: "ORD-3", SKU: "SKU-GRN", BuyerPostcode: "lu1 \t2ab"},
	))
	require.NoError(t, err)

	testCases := []struct {
		name  string
		field domain.SearchField
		term  string
		want  []string
	}{
		{"order number substring", domain.FieldOrderNumber, "ord-", []string{"ORD-1", "ORD-2"}},
		{"customer substring", domain.FieldCustomerName, "ann", []string{"ORD-1"}},
		{"sku substring", domain.FieldSKU, "blue", []string{"ORD-2"}},
		{"normalized postcode", domain.FieldPostcode, "AB12CD", []string{"ORD-1"}},
		{"unicode whitespace postcode", domain.FieldPostcode, "LU12AB", []string{"ORD-3"}},
		{"no match", domain.FieldCustomerName, "zed", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			recs, err := s.MatchField(ctx, tc.field, tc.term)
			require.NoError(t, err)

			var got []string
			for _, rec := range recs {
				got = append(got, rec.OrderNumber)
			}
			require.Equal(t, tc.want, got)
		})
	}
}

func TestMemoryStatsAndBatches(t *testing.T) {
	s := newReadyMemory(t)
	ctx := context.Background()

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, stats.TotalOrders)

	at := time.Date(2025, 11, 2, 8, 0, 0, 0, time.UTC)
	_, err = s.Put(ctx, codec.ToArchivedBatch([]domain.Order{
		{OrderNumber: "A1", SKU: "S1", Channel: "ebay"},
		{OrderNumber: "A2", SKU: "S1", Channel: "ebay"},
		{OrderNumber: "A3", SKU: "S1", Channel: "amazon"},
	}, "F1", at))
	require.NoError(t, err)

	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalOrders)
	require.Equal(t, 2, stats.ByChannel["ebay"])
	require.Equal(t, 1, stats.ByChannel["amazon"])
	require.Equal(t, 3, stats.ByDate["2025-11-02"])

	batches, err := s.Batches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	require.Equal(t, "F1", batches[0].FileName)
	require.Equal(t, 3, batches[0].Orders)
}

func TestMemoryDeleteAndClear(t *testing.T) {
	s := newReadyMemory(t)
	ctx := context.Background()

	old := time.Now().Add(-72 * time.Hour)
	_, err := s.Put(ctx, codec.ToArchivedBatch([]domain.Order{{OrderNumber: "A1", SKU: "S1"}}, "F1", old))
	require.NoError(t, err)
	_, err = s.Put(ctx, batch("F1", domain.Order{OrderNumber: "A2", SKU: "S1"}))
	require.NoError(t, err)

	keys, err := s.KeysOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, []domain.ArchiveKey{{OrderNumber: "A1", SKU: "S1", FileName: "F1"}}, keys)

	require.NoError(t, s.Delete(ctx, keys[0]))
	// Deleting a missing key is a no-op.
	require.NoError(t, s.Delete(ctx, keys[0]))

	total, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, total)

	require.NoError(t, s.Clear(ctx))
	total, err = s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, total)
}
