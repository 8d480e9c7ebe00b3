// Package resolver is the lookup facade used by the rest of the app: it
// checks the live picking list first and falls back to the archive.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"orderpick/internal/codec"
	"orderpick/internal/domain"
	"orderpick/internal/observability"
)

// Engine is the archive query side of resolution.
type Engine interface {
	Search(ctx context.Context, term string) (domain.SearchResult, error)
}

type Resolver struct {
	mu   sync.RWMutex
	live []domain.Order

	engine  Engine
	cache   *lru.Cache[string, domain.Order]
	senders []string
	logger  *zap.Logger
	metrics observability.Metrics
}

func New(engine Engine, senders []string, cacheCap int, logger *zap.Logger, metrics observability.Metrics) (*Resolver, error) {
	if cacheCap < 1 {
		cacheCap = 1
	}
	c, err := lru.New[string, domain.Order](cacheCap)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		engine:  engine,
		cache:   c,
		senders: senders,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// SetLive replaces the in-memory live order list for the active session and
// purges cached resolutions, which may refer to the previous session.
func (r *Resolver) SetLive(orders []domain.Order) {
	r.mu.Lock()
	r.live = orders
	r.mu.Unlock()
	r.cache.Purge()
}

// Warm pre-caches the most recent archive entries by order number so the
// first scans after startup skip the store.
func (r *Resolver) Warm(ctx context.Context) {
	res, err := r.engine.Search(ctx, "")
	if err != nil {
		return
	}
	const warmLimit = 64
	records := res.Orders
	start := 0
	if len(records) > warmLimit {
		start = len(records) - warmLimit
	}
	for _, rec := range records[start:] {
		r.cache.Add(strings.ToLower(rec.OrderNumber), codec.ToOrder(rec))
	}
}

// Resolve finds one order for a typed search term: live list first, then the
// archive. Misses come back as ErrNotFound with the term in the message,
// never as a crash.
func (r *Resolver) Resolve(ctx context.Context, term string) (*domain.Order, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("no order found for %q: %w", term, domain.ErrNotFound)
	}

	t0 := time.Now()
	key := strings.ToLower(term)

	if order, ok := r.cache.Get(key); ok {
		r.observe("cache", t0)
		return &order, nil
	}

	if order, ok := r.matchLive(term); ok {
		r.cache.Add(key, order)
		r.metrics.IncLiveHit()
		r.observe("live", t0)
		return &order, nil
	}

	if r.engine != nil {
		res, err := r.engine.Search(ctx, term)
		switch {
		case err != nil:
			// Archive disabled is a degraded mode, not a failure of the
			// lookup itself.
			r.logger.Warn("archive lookup skipped", zap.String("term", term), zap.Error(err))
		case res.FoundInArchive:
			order := codec.ToOrder(res.Orders[0])
			r.cache.Add(key, order)
			r.metrics.IncArchiveHit()
			r.observe("archive", t0)
			return &order, nil
		}
	}

	r.metrics.IncResolveMiss()
	r.observe("miss", t0)
	return nil, fmt.Errorf("no order found for %q: %w", term, domain.ErrNotFound)
}

// ResolveScan handles a raw QR payload: extract the buyer postcode, then
// resolve it like a typed term. A payload with no extractable buyer postcode
// triggers no search at all.
func (r *Resolver) ResolveScan(ctx context.Context, payload string) (*domain.Order, error) {
	postcode, ok := ExtractPostcode(payload, r.senders)
	if !ok {
		r.logger.Debug("scan payload yielded no buyer postcode")
		return nil, fmt.Errorf("no order found for scanned label: %w", domain.ErrNotFound)
	}
	return r.Resolve(ctx, postcode)
}

// matchLive scans the live list with the same fallback discipline as the
// archive engine, but prioritized for picking: customer name first, then
// order number, normalized postcode, and sku.
func (r *Resolver) matchLive(term string) (domain.Order, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lowered := strings.ToLower(term)
	normalized := domain.NormalizePostcode(term)

	for _, o := range r.live {
		if strings.Contains(strings.ToLower(o.CustomerName), lowered) {
			return o, true
		}
	}
	for _, o := range r.live {
		if strings.Contains(strings.ToLower(o.OrderNumber), lowered) {
			return o, true
		}
	}
	if normalized != "" {
		for _, o := range r.live {
			if strings.Contains(domain.NormalizePostcode(o.BuyerPostcode), normalized) {
				return o, true
			}
		}
	}
	for _, o := range r.live {
		if strings.Contains(strings.ToLower(o.SKU), lowered) {
			return o, true
		}
	}
	return domain.Order{}, false
}

func (r *Resolver) observe(source string, t0 time.Time) {
	r.metrics.ObserveResolve(source, float64(time.Since(t0).Microseconds())/1000.0)
}
