// Package retention deletes archived orders older than the configured
// horizon so the store does not grow unbounded.
package retention

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"orderpick/internal/domain"
)

// Manager enforces the retention policy. The automatic pass runs at most
// once per process start; explicit re-runs are allowed and idempotent.
type Manager struct {
	store   domain.ArchiveStore
	horizon time.Duration
	logger  *zap.Logger
	auto    sync.Once
	now     func() time.Time
}

func New(store domain.ArchiveStore, horizon time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		store:   store,
		horizon: horizon,
		logger:  logger,
		now:     time.Now,
	}
}

// InitAutoCleanup performs the once-per-start pass. Later calls no-op.
func (m *Manager) InitAutoCleanup(ctx context.Context) {
	m.auto.Do(func() {
		if err := m.Run(ctx); err != nil {
			m.logger.Warn("startup cleanup incomplete", zap.Error(err))
		}
	})
}

// Run deletes everything archived before the horizon, one record per
// statement so foreground search and archiving interleave freely. Not atomic
// across the store: records deleted before a mid-pass failure stay deleted,
// the remainder are picked up by the next invocation.
func (m *Manager) Run(ctx context.Context) error {
	if !m.store.Ready() {
		return domain.ErrStorageUnavailable
	}

	cutoff := m.now().Add(-m.horizon)
	keys, err := m.store.KeysOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list expired records: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	deleted := 0
	var lastErr error
	for _, key := range keys {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
		if err := m.store.Delete(ctx, key); err != nil {
			m.logger.Warn("expired record not deleted, will retry next pass",
				zap.String("order_number", key.OrderNumber),
				zap.String("sku", key.SKU),
				zap.String("file_name", key.FileName),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		deleted++
	}

	m.logger.Info("retention pass finished",
		zap.Time("cutoff", cutoff),
		zap.Int("expired", len(keys)),
		zap.Int("deleted", deleted),
	)
	return lastErr
}
