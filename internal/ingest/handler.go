package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"orderpick/internal/config"
	"orderpick/internal/domain"
	"orderpick/internal/observability"
	"orderpick/internal/pkg/breaker"
	"orderpick/internal/pkg/retry"
)

//go:generate mockgen -source internal/ingest/handler.go -destination=internal/ingest/handler_mock_test.go -package=ingest

var (
	ErrBadPayload  = errors.New("bad batch payload")
	ErrArchive     = errors.New("archive failed")
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// Archiver persists one decoded batch.
type Archiver interface {
	ArchiveOrders(ctx context.Context, orders []domain.Order, fileName string) (int, error)
}

// batchPayload is the wire shape of one order feed message: a whole
// ingestion batch under one label.
type batchPayload struct {
	FileName string         `json:"file_name"`
	Orders   []domain.Order `json:"orders"`
}

type Handler struct {
	archiver    Archiver
	breaker     *breaker.Breaker
	retryPolicy config.Retry
	logger      *zap.Logger
	metrics     observability.Metrics
}

func NewHandler(archiver Archiver, brk *breaker.Breaker, retryPolicy config.Retry, logger *zap.Logger, metrics observability.Metrics) *Handler {
	return &Handler{
		archiver:    archiver,
		breaker:     brk,
		retryPolicy: retryPolicy,
		logger:      logger,
		metrics:     metrics,
	}
}

// Handle — called by the consumer to process a single message. The consumer
// commits the offset itself after Handle returns nil.
func (h *Handler) Handle(ctx context.Context, message kafkago.Message) error {
	t0 := time.Now()

	if err := h.breaker.Allow(); err != nil {
		h.logger.Warn("circuit breaker is open",
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}

	var batch batchPayload
	if err := json.Unmarshal(message.Value, &batch); err != nil {
		h.logger.Error("bad batch json",
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.breaker.Failure()
		h.metrics.ObserveIngest(sinceMs(t0), false)
		return ErrBadPayload
	}
	if batch.FileName == "" || len(batch.Orders) == 0 {
		h.logger.Error("batch missing file_name or orders",
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.breaker.Failure()
		h.metrics.ObserveIngest(sinceMs(t0), false)
		return ErrBadPayload
	}

	var written int
	if err := retry.Do(ctx, h.retryPolicy, func() error {
		var err error
		written, err = h.archiver.ArchiveOrders(ctx, batch.Orders, batch.FileName)
		return err
	}); err != nil {
		h.logger.Error("archive failed after retries",
			zap.String("file_name", batch.FileName),
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.breaker.Failure()
		h.metrics.ObserveIngest(sinceMs(t0), false)
		return ErrArchive
	}

	h.breaker.Success()
	h.metrics.ObserveIngest(sinceMs(t0), true)
	h.logger.Info("batch ingested",
		zap.String("file_name", batch.FileName),
		zap.Int("orders", len(batch.Orders)),
		zap.Int("written", written),
		zap.Int("partition", message.Partition),
		zap.Int64("offset", message.Offset),
	)
	return nil
}

func sinceMs(t0 time.Time) float64 {
	return float64(time.Since(t0).Microseconds()) / 1000.0
}
