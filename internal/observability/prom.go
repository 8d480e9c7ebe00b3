package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prom exposes the same observations as counters and histograms for a
// Prometheus scrape.
type Prom struct {
	searchDur  *prometheus.HistogramVec
	searchHits *prometheus.CounterVec
	archiveDur prometheus.Histogram
	archived   prometheus.Counter
	resolveDur *prometheus.HistogramVec
	httpDur    *prometheus.HistogramVec
	ingestDur  *prometheus.HistogramVec
	hits       *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	factory := promauto.With(reg)
	return &Prom{
		searchDur: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "orderpick_search_duration_ms",
			Help: "Archive search duration by matched field.",
		}, []string{"field"}),
		searchHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "orderpick_search_hits_total",
			Help: "Archive search hits by matched field.",
		}, []string{"field"}),
		archiveDur: factory.NewHistogram(prometheus.HistogramOpts{
			Name: "orderpick_archive_batch_duration_ms",
			Help: "Batch archive write duration.",
		}),
		archived: factory.NewCounter(prometheus.CounterOpts{
			Name: "orderpick_archived_records_total",
			Help: "Records written into the archive.",
		}),
		resolveDur: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "orderpick_resolve_duration_ms",
			Help: "Order resolution duration by source.",
		}, []string{"source"}),
		httpDur: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "orderpick_http_duration_ms",
			Help: "HTTP request duration.",
		}, []string{"method", "route", "status"}),
		ingestDur: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "orderpick_ingest_duration_ms",
			Help: "Order feed message processing duration.",
		}, []string{"ok"}),
		hits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "orderpick_resolve_outcomes_total",
			Help: "Resolution outcomes by source.",
		}, []string{"outcome"}),
	}
}

func (p *Prom) ObserveSearch(matchedField string, durMs float64, hits int) {
	p.searchDur.WithLabelValues(matchedField).Observe(durMs)
	p.searchHits.WithLabelValues(matchedField).Add(float64(hits))
}

func (p *Prom) ObserveArchive(written int, durMs float64) {
	p.archiveDur.Observe(durMs)
	p.archived.Add(float64(written))
}

func (p *Prom) ObserveResolve(source string, durMs float64) {
	p.resolveDur.WithLabelValues(source).Observe(durMs)
}

func (p *Prom) ObserveHTTP(method, route string, status int, durMs float64) {
	p.httpDur.WithLabelValues(method, route, strconv.Itoa(status)).Observe(durMs)
}

func (p *Prom) ObserveIngest(processMs float64, ok bool) {
	p.ingestDur.WithLabelValues(strconv.FormatBool(ok)).Observe(processMs)
}

func (p *Prom) IncLiveHit()     { p.hits.WithLabelValues("live").Inc() }
func (p *Prom) IncArchiveHit()  { p.hits.WithLabelValues("archive").Inc() }
func (p *Prom) IncResolveMiss() { p.hits.WithLabelValues("miss").Inc() }
