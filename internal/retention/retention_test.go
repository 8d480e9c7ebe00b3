package retention

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"orderpick/internal/archive"
	"orderpick/internal/codec"
	"orderpick/internal/domain"
)

const horizon = 30 * 24 * time.Hour

func seededStore(t *testing.T) *archive.Memory {
	t.Helper()
	ctx := context.Background()
	s := archive.NewMemory()
	require.NoError(t, s.Init(ctx))

	now := time.Now()
	expired := codec.ToArchivedBatch(
		[]domain.Order{{OrderNumber: "OLD", SKU: "S1"}}, "F1", now.Add(-horizon-24*time.Hour))
	fresh := codec.ToArchivedBatch(
		[]domain.Order{{OrderNumber: "NEW", SKU: "S1"}}, "F1", now.Add(-24*time.Hour))

	_, err := s.Put(ctx, expired)
	require.NoError(t, err)
	_, err = s.Put(ctx, fresh)
	require.NoError(t, err)
	return s
}

func remaining(t *testing.T, s *archive.Memory) []string {
	t.Helper()
	all, err := s.All(context.Background())
	require.NoError(t, err)
	var out []string
	for _, rec := range all {
		out = append(out, rec.OrderNumber)
	}
	return out
}

func TestInitAutoCleanup(t *testing.T) {
	s := seededStore(t)
	m := New(s, horizon, zap.NewNop())

	m.InitAutoCleanup(context.Background())
	require.Equal(t, []string{"NEW"}, remaining(t, s))
}

func TestInitAutoCleanupRunsOnce(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)
	m := New(s, horizon, zap.NewNop())

	m.InitAutoCleanup(ctx)

	// A record that expires after the automatic pass is untouched by a
	// second InitAutoCleanup; only an explicit Run picks it up.
	_, err := s.Put(ctx, codec.ToArchivedBatch(
		[]domain.Order{{OrderNumber: "OLD-2", SKU: "S1"}}, "F2", time.Now().Add(-horizon-time.Hour)))
	require.NoError(t, err)

	m.InitAutoCleanup(ctx)
	require.Equal(t, []string{"NEW", "OLD-2"}, remaining(t, s))

	require.NoError(t, m.Run(ctx))
	require.Equal(t, []string{"NEW"}, remaining(t, s))
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)
	m := New(s, horizon, zap.NewNop())

	require.NoError(t, m.Run(ctx))
	require.NoError(t, m.Run(ctx))
	require.Equal(t, []string{"NEW"}, remaining(t, s))
}

func TestRunOnDisabledStore(t *testing.T) {
	m := New(archive.NewMemory(), horizon, zap.NewNop())
	require.ErrorIs(t, m.Run(context.Background()), domain.ErrStorageUnavailable)
}
