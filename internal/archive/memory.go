package archive

import (
	"context"
	"strings"
	"sync"
	"time"

	"orderpick/internal/domain"
)

// Memory is an archive store for single-station deployments without a
// database, and for tests. Same contract as Postgres, including insertion
// order and the keep-first-archived-at upsert rule.
type Memory struct {
	mu      sync.RWMutex
	ready   bool
	records []domain.ArchivedOrder
	index   map[domain.ArchiveKey]int
}

func NewMemory() *Memory {
	return &Memory{index: map[domain.ArchiveKey]int{}}
}

func (s *Memory) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	return nil
}

func (s *Memory) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *Memory) Put(ctx context.Context, records []domain.ArchivedOrder) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return 0, domain.ErrStorageUnavailable
	}

	written := 0
	for _, rec := range records {
		key := rec.Key()
		if i, ok := s.index[key]; ok {
			// Overwrite in place, keeping position and the original stamp.
			rec.ArchivedAt = s.records[i].ArchivedAt
			s.records[i] = rec
		} else {
			s.index[key] = len(s.records)
			s.records = append(s.records, rec)
		}
		written++
	}
	return written, nil
}

func (s *Memory) All(ctx context.Context) ([]domain.ArchivedOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return nil, domain.ErrStorageUnavailable
	}
	out := make([]domain.ArchivedOrder, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *Memory) MatchField(ctx context.Context, field domain.SearchField, term string) ([]domain.ArchivedOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return nil, domain.ErrStorageUnavailable
	}

	var out []domain.ArchivedOrder
	for _, rec := range s.records {
		var hay string
		switch field {
		case domain.FieldOrderNumber:
			hay = strings.ToLower(rec.OrderNumber)
		case domain.FieldCustomerName:
			hay = strings.ToLower(rec.CustomerName)
		case domain.FieldSKU:
			hay = strings.ToLower(rec.SKU)
		case domain.FieldPostcode:
			hay = domain.NormalizePostcode(rec.BuyerPostcode)
		}
		if hay != "" && strings.Contains(hay, term) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Memory) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return 0, domain.ErrStorageUnavailable
	}
	return len(s.records), nil
}

func (s *Memory) Stats(ctx context.Context) (domain.ArchiveStats, error) {
	stats := domain.ArchiveStats{
		ByChannel: map[string]int{},
		ByDate:    map[string]int{},
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return stats, domain.ErrStorageUnavailable
	}

	for _, rec := range s.records {
		stats.TotalOrders++
		if rec.Channel != "" {
			stats.ByChannel[rec.Channel]++
		}
		stats.ByDate[rec.ArchivedAt.UTC().Format("2006-01-02")]++
	}
	return stats, nil
}

func (s *Memory) Batches(ctx context.Context) ([]domain.BatchInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return nil, domain.ErrStorageUnavailable
	}

	byName := map[string]*domain.BatchInfo{}
	var order []string
	for _, rec := range s.records {
		b, ok := byName[rec.FileName]
		if !ok {
			b = &domain.BatchInfo{FileName: rec.FileName}
			byName[rec.FileName] = b
			order = append(order, rec.FileName)
		}
		b.Orders++
		if rec.ArchivedAt.After(b.NewestScan) {
			b.NewestScan = rec.ArchivedAt
		}
	}

	out := make([]domain.BatchInfo, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}

func (s *Memory) KeysOlderThan(ctx context.Context, cutoff time.Time) ([]domain.ArchiveKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return nil, domain.ErrStorageUnavailable
	}

	var keys []domain.ArchiveKey
	for _, rec := range s.records {
		if rec.ArchivedAt.Before(cutoff) {
			keys = append(keys, rec.Key())
		}
	}
	return keys, nil
}

func (s *Memory) Delete(ctx context.Context, key domain.ArchiveKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return domain.ErrStorageUnavailable
	}

	i, ok := s.index[key]
	if !ok {
		return nil
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	delete(s.index, key)
	for j := i; j < len(s.records); j++ {
		s.index[s.records[j].Key()] = j
	}
	return nil
}

func (s *Memory) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return domain.ErrStorageUnavailable
	}
	s.records = nil
	s.index = map[domain.ArchiveKey]int{}
	return nil
}
