// Package search answers fuzzy lookups against the archive. Ranking is a
// fixed field-priority fallback, not a relevance score: the first identifier
// field that yields at least one match decides the whole result set.
package search

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"orderpick/internal/domain"
	"orderpick/internal/observability"
)

// Fields in fallback order. Ties within a field keep archive insertion
// order, which the store guarantees.
var fieldPriority = []domain.SearchField{
	domain.FieldOrderNumber,
	domain.FieldCustomerName,
	domain.FieldSKU,
	domain.FieldPostcode,
}

type Engine struct {
	store   domain.ArchiveStore
	logger  *zap.Logger
	metrics observability.Metrics
}

func NewEngine(store domain.ArchiveStore, logger *zap.Logger, metrics observability.Metrics) *Engine {
	return &Engine{store: store, logger: logger, metrics: metrics}
}

// Search runs one lookup pass. The empty term is a valid query meaning
// "everything" (used by export) in insertion order. No matches is a normal
// result, never an error; ErrSearchUnavailable only when the store is not
// initialized.
func (e *Engine) Search(ctx context.Context, term string) (domain.SearchResult, error) {
	if !e.store.Ready() {
		return domain.SearchResult{}, domain.ErrSearchUnavailable
	}

	t0 := time.Now()
	term = strings.TrimSpace(term)

	if term == "" {
		records, err := e.store.All(ctx)
		if err != nil {
			return domain.SearchResult{}, err
		}
		return e.done("all", term, records, t0), nil
	}

	lowered := strings.ToLower(term)
	for _, field := range fieldPriority {
		needle := lowered
		if field == domain.FieldPostcode {
			needle = domain.NormalizePostcode(term)
			if needle == "" {
				continue
			}
		}
		records, err := e.store.MatchField(ctx, field, needle)
		if err != nil {
			return domain.SearchResult{}, err
		}
		if len(records) > 0 {
			return e.done(field.String(), term, records, t0), nil
		}
	}
	return e.done("none", term, nil, t0), nil
}

func (e *Engine) done(field, term string, records []domain.ArchivedOrder, t0 time.Time) domain.SearchResult {
	durMs := float64(time.Since(t0).Microseconds()) / 1000.0
	e.metrics.ObserveSearch(field, durMs, len(records))
	e.logger.Debug("archive search",
		zap.String("term", term),
		zap.String("matched_field", field),
		zap.Int("hits", len(records)),
		zap.Float64("search_ms", durMs),
	)
	return domain.SearchResult{
		FoundInArchive: len(records) > 0,
		Orders:         records,
	}
}
