// Package picking owns the live order list of the active session and the
// optimistic completion flow against the remote source.
package picking

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"orderpick/internal/config"
	"orderpick/internal/domain"
	"orderpick/internal/pkg/breaker"
	"orderpick/internal/pkg/retry"
	"orderpick/internal/source"
)

//go:generate mockgen -source internal/picking/session.go -destination=internal/picking/session_mock_test.go -package=picking

// Archiver persists a loaded batch. Archive failures degrade, they never
// abort loading.
type Archiver interface {
	ArchiveOrders(ctx context.Context, orders []domain.Order, fileName string) (int, error)
}

// LiveSink receives the new live list whenever it is replaced.
type LiveSink interface {
	SetLive(orders []domain.Order)
}

const (
	statusCompleted = "completed"
	statusPending   = "pending"
)

type Session struct {
	mu     sync.RWMutex
	orders []domain.Order
	remote source.OrderSource

	archiver    Archiver
	sink        LiveSink
	brk         *breaker.Breaker
	retryPolicy config.Retry
	logger      *zap.Logger
	now         func() time.Time
}

func NewSession(archiver Archiver, sink LiveSink, brk *breaker.Breaker, retryPolicy config.Retry, logger *zap.Logger) *Session {
	return &Session{
		archiver:    archiver,
		sink:        sink,
		brk:         brk,
		retryPolicy: retryPolicy,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Session) Orders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// LoadFromSource pulls orders from a remote system and makes them the live
// list. The batch is archived under a generated label so every API pull is
// retrievable later regardless of what happens to the session.
func (s *Session) LoadFromSource(ctx context.Context, src source.OrderSource, filter source.Filter) (int, error) {
	orders, err := src.GetOrdersByStatusOrTag(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("load orders from %s: %w", src.Name(), err)
	}

	label := fmt.Sprintf("%s-%s-%s",
		src.Name(),
		s.now().UTC().Format("2006-01-02"),
		strings.Split(uuid.NewString(), "-")[0],
	)
	s.replace(orders, src)
	s.archive(ctx, orders, label)
	return len(orders), nil
}

// LoadFromFile makes a parsed upload the live list and archives it under the
// uploaded file's name.
func (s *Session) LoadFromFile(ctx context.Context, orders []domain.Order, fileName string) int {
	s.replace(orders, nil)
	s.archive(ctx, orders, fileName)
	return len(orders)
}

func (s *Session) replace(orders []domain.Order, remote source.OrderSource) {
	// The session owns its copy; callers and the sink each get their own.
	own := make([]domain.Order, len(orders))
	copy(own, orders)
	s.mu.Lock()
	s.orders = own
	s.remote = remote
	s.mu.Unlock()
	s.syncLive()
	s.logger.Info("live order list replaced", zap.Int("orders", len(orders)))
}

// syncLive hands the sink a fresh copy of the live list. The session keeps
// mutating its own copy on completion toggles, so the two must never alias.
func (s *Session) syncLive() {
	if s.sink == nil {
		return
	}
	s.sink.SetLive(s.Orders())
}

func (s *Session) archive(ctx context.Context, orders []domain.Order, fileName string) {
	if s.archiver == nil {
		return
	}
	if _, err := s.archiver.ArchiveOrders(ctx, orders, fileName); err != nil {
		s.logger.Warn("batch not archived, picking continues",
			zap.String("file_name", fileName),
			zap.Error(err),
		)
	}
}

// SetCompleted is a two-phase update: apply the local transition, push it to
// the remote source, and on failure apply the exact inverse. The returned
// error wraps ErrRemoteUpdate when the remote side rejected the change.
func (s *Session) SetCompleted(ctx context.Context, orderNumber, sku string, completed bool) error {
	prev, remoteID, ok := s.apply(orderNumber, sku, completed)
	if !ok {
		return fmt.Errorf("no order found for %q: %w", orderNumber, domain.ErrNotFound)
	}
	if prev == completed {
		return nil
	}

	s.mu.RLock()
	remote := s.remote
	s.mu.RUnlock()

	// File-loaded batches have no remote side to keep in step with.
	if remote == nil || remoteID == "" {
		s.syncLive()
		return nil
	}

	status := statusPending
	if completed {
		status = statusCompleted
	}

	err := s.withBreaker(ctx, func() error {
		return remote.UpdateOrderStatus(ctx, remoteID, status)
	})
	if err != nil {
		s.apply(orderNumber, sku, prev)
		s.logger.Warn("remote status update failed, local change reverted",
			zap.String("order_number", orderNumber),
			zap.String("sku", sku),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", domain.ErrRemoteUpdate, err)
	}
	s.syncLive()
	return nil
}

// apply finds the order by key under the lock and flips its flag. The remote
// ID is captured in the same critical section; the list may be replaced the
// moment the lock is released.
func (s *Session) apply(orderNumber, sku string, completed bool) (prev bool, remoteID string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].OrderNumber == orderNumber && s.orders[i].SKU == sku {
			prev = s.orders[i].Completed
			s.orders[i].Completed = completed
			return prev, remoteOrderID(s.orders[i]), true
		}
	}
	return false, "", false
}

func (s *Session) withBreaker(ctx context.Context, fn func() error) error {
	if s.brk != nil {
		if err := s.brk.Allow(); err != nil {
			return err
		}
	}
	err := retry.Do(ctx, s.retryPolicy, fn)
	if s.brk != nil {
		if err != nil {
			s.brk.Failure()
		} else {
			s.brk.Success()
		}
	}
	return err
}

func remoteOrderID(o domain.Order) string {
	if o.SelroOrderID != "" {
		return o.SelroOrderID
	}
	return o.VeeqoOrderID
}
