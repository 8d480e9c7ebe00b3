package archive

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"orderpick/internal/codec"
	"orderpick/internal/domain"
	"orderpick/internal/observability"
)

// Cleaner is the retention hook the archiver pokes when the store grows past
// the trigger threshold.
type Cleaner interface {
	Run(ctx context.Context) error
}

// Archiver is the write-side facade: it converts a transient batch into
// durable records, stamps them, and upserts them by composite key.
type Archiver struct {
	store        domain.ArchiveStore
	cleaner      Cleaner
	triggerCount int
	logger       *zap.Logger
	metrics      observability.Metrics
	now          func() time.Time
}

func NewArchiver(store domain.ArchiveStore, cleaner Cleaner, triggerCount int, logger *zap.Logger, metrics observability.Metrics) *Archiver {
	return &Archiver{
		store:        store,
		cleaner:      cleaner,
		triggerCount: triggerCount,
		logger:       logger,
		metrics:      metrics,
		now:          time.Now,
	}
}

// ArchiveOrders persists one ingestion batch under fileName and returns how
// many records were written. A disabled archive or a partially failed batch
// is recoverable at the call site: loading and picking carry on regardless.
func (a *Archiver) ArchiveOrders(ctx context.Context, orders []domain.Order, fileName string) (int, error) {
	if fileName == "" {
		return 0, errors.New("archive batch needs a file name")
	}
	if len(orders) == 0 {
		return 0, nil
	}
	if !a.store.Ready() {
		a.logger.Warn("archive disabled, batch not persisted",
			zap.String("file_name", fileName),
			zap.Int("orders", len(orders)),
		)
		return 0, domain.ErrStorageUnavailable
	}

	t0 := a.now()
	records := codec.ToArchivedBatch(orders, fileName, t0)
	written, err := a.store.Put(ctx, records)
	if err != nil {
		a.logger.Error("archive batch failed",
			zap.String("file_name", fileName),
			zap.Error(err),
		)
		return written, err
	}

	durMs := float64(time.Since(t0).Microseconds()) / 1000.0
	a.metrics.ObserveArchive(written, durMs)
	a.logger.Info("batch archived",
		zap.String("file_name", fileName),
		zap.Int("orders", len(orders)),
		zap.Int("written", written),
		zap.Float64("db_write_ms", durMs),
	)

	a.maybeClean(ctx)
	return written, nil
}

// maybeClean re-runs retention when the store has grown past the threshold.
// Failures here never surface to the archiving caller.
func (a *Archiver) maybeClean(ctx context.Context) {
	if a.cleaner == nil || a.triggerCount <= 0 {
		return
	}
	n, err := a.store.Count(ctx)
	if err != nil || n <= a.triggerCount {
		return
	}
	if err := a.cleaner.Run(ctx); err != nil {
		a.logger.Warn("opportunistic cleanup failed", zap.Error(err))
	}
}
