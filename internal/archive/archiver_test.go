package archive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"orderpick/internal/domain"
	"orderpick/internal/observability"
)

type recordingCleaner struct{ runs int }

func (c *recordingCleaner) Run(ctx context.Context) error {
	c.runs++
	return nil
}

func TestArchiveOrders(t *testing.T) {
	ctx := context.Background()
	l := zap.NewNop()
	m := observability.NewNoop()

	orders := []domain.Order{
		{OrderNumber: "A1", SKU: "S1"},
		{OrderNumber: "A2", SKU: "S1"},
	}

	t.Run("writes batch and stamps file name", func(t *testing.T) {
		store := newReadyMemory(t)
		a := NewArchiver(store, nil, 0, l, m)

		n, err := a.ArchiveOrders(ctx, orders, "F1")
		require.NoError(t, err)
		require.Equal(t, 2, n)

		all, err := store.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		for _, rec := range all {
			require.Equal(t, "F1", rec.FileName)
			require.False(t, rec.ArchivedAt.IsZero())
		}
	})

	t.Run("empty file name is rejected", func(t *testing.T) {
		a := NewArchiver(newReadyMemory(t), nil, 0, l, m)
		_, err := a.ArchiveOrders(ctx, orders, "")
		require.Error(t, err)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		a := NewArchiver(newReadyMemory(t), nil, 0, l, m)
		n, err := a.ArchiveOrders(ctx, nil, "F1")
		require.NoError(t, err)
		require.Equal(t, 0, n)
	})

	t.Run("disabled archive degrades", func(t *testing.T) {
		a := NewArchiver(NewMemory(), nil, 0, l, m)
		n, err := a.ArchiveOrders(ctx, orders, "F1")
		require.ErrorIs(t, err, domain.ErrStorageUnavailable)
		require.Equal(t, 0, n)
	})

	t.Run("archiving twice keeps the count", func(t *testing.T) {
		store := newReadyMemory(t)
		a := NewArchiver(store, nil, 0, l, m)

		_, err := a.ArchiveOrders(ctx, orders, "F1")
		require.NoError(t, err)
		_, err = a.ArchiveOrders(ctx, orders, "F1")
		require.NoError(t, err)

		total, err := store.Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, total)
	})
}

func TestArchiveOrdersTriggersCleanup(t *testing.T) {
	ctx := context.Background()
	store := newReadyMemory(t)
	cleaner := &recordingCleaner{}
	a := NewArchiver(store, cleaner, 1, zap.NewNop(), observability.NewNoop())

	_, err := a.ArchiveOrders(ctx, []domain.Order{{OrderNumber: "A1", SKU: "S1"}}, "F1")
	require.NoError(t, err)
	require.Equal(t, 0, cleaner.runs)

	_, err = a.ArchiveOrders(ctx, []domain.Order{{OrderNumber: "A2", SKU: "S1"}}, "F1")
	require.NoError(t, err)
	require.Equal(t, 1, cleaner.runs)
}
