package observability

import "sync"

// Inmem keeps the last N observations for debugging without a scrape
// endpoint.
type Inmem struct {
	mu     sync.Mutex
	last   []any
	max    int
	totals struct {
		liveHits, archiveHits, misses int
	}
}

func NewInmem(max int) *Inmem {
	return &Inmem{
		max: max,
	}
}

func (m *Inmem) push(v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = append(m.last, v)
	if len(m.last) > m.max {
		m.last = m.last[1:]
	}
}

func (m *Inmem) ObserveSearch(matchedField string, durMs float64, hits int) {
	m.push(struct {
		Kind  string
		Field string
		Dur   float64
		Hits  int
	}{"search", matchedField, durMs, hits})
}

func (m *Inmem) ObserveArchive(written int, durMs float64) {
	m.push(struct {
		Kind    string
		Written int
		Dur     float64
	}{"archive", written, durMs})
}

func (m *Inmem) ObserveResolve(source string, durMs float64) {
	m.push(struct {
		Kind   string
		Source string
		Dur    float64
	}{"resolve", source, durMs})
}

func (m *Inmem) ObserveHTTP(method, route string, status int, durMs float64) {
	m.push(struct {
		Kind          string
		Method, Route string
		Status        int
		Dur           float64
	}{"http", method, route, status, durMs})
}

func (m *Inmem) ObserveIngest(processMs float64, ok bool) {
	m.push(struct {
		Kind string
		Dur  float64
		OK   bool
	}{"ingest", processMs, ok})
}

func (m *Inmem) IncLiveHit() {
	m.mu.Lock()
	m.totals.liveHits++
	m.mu.Unlock()
}

func (m *Inmem) IncArchiveHit() {
	m.mu.Lock()
	m.totals.archiveHits++
	m.mu.Unlock()
}

func (m *Inmem) IncResolveMiss() {
	m.mu.Lock()
	m.totals.misses++
	m.mu.Unlock()
}
