// Package httpapi exposes the archive, search, and resolution surface to the
// picking UI.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"orderpick/internal/codec"
	"orderpick/internal/domain"
	"orderpick/internal/observability"
	"orderpick/internal/source"
)

type Searcher interface {
	Search(ctx context.Context, term string) (domain.SearchResult, error)
}

type Resolver interface {
	Resolve(ctx context.Context, term string) (*domain.Order, error)
	ResolveScan(ctx context.Context, payload string) (*domain.Order, error)
}

type Archiver interface {
	ArchiveOrders(ctx context.Context, orders []domain.Order, fileName string) (int, error)
}

type Cleaner interface {
	Run(ctx context.Context) error
}

type Session interface {
	Orders() []domain.Order
	LoadFromSource(ctx context.Context, src source.OrderSource, filter source.Filter) (int, error)
	LoadFromFile(ctx context.Context, orders []domain.Order, fileName string) int
	SetCompleted(ctx context.Context, orderNumber, sku string, completed bool) error
}

type Server struct {
	store    domain.ArchiveStore
	engine   Searcher
	resolver Resolver
	archiver Archiver
	cleaner  Cleaner
	session  Session
	sources  map[string]source.OrderSource
	parser   source.FileParser

	mux     *chi.Mux
	logger  *zap.Logger
	metrics observability.Metrics
}

func New(store domain.ArchiveStore, engine Searcher, resolver Resolver, archiver Archiver, cleaner Cleaner, session Session, sources map[string]source.OrderSource, logger *zap.Logger, metrics observability.Metrics) *Server {
	s := &Server{
		store:    store,
		engine:   engine,
		resolver: resolver,
		archiver: archiver,
		cleaner:  cleaner,
		session:  session,
		sources:  sources,
		parser:   source.CSVParser{},
		mux:      chi.NewRouter(),
		logger:   logger,
		metrics:  metrics,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Use(ServerTimingApp(s.metrics))

	s.mux.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.mux.Route("/api", func(r chi.Router) {
		r.Get("/orders/search", s.searchOrders)
		r.Get("/orders/resolve", s.resolveOrder)
		r.Post("/orders/scan", s.scanLabel)
		r.Post("/orders/archive", s.archiveBatch)

		r.Get("/session/orders", s.sessionOrders)
		r.Post("/session/load", s.loadFromSource)
		r.Post("/session/upload", s.loadFromFile)
		r.Post("/session/complete", s.completeOrder)

		r.Get("/archive/stats", s.archiveStats)
		r.Get("/archive/batches", s.archiveBatches)
		r.Get("/archive/export", s.exportArchive)
		r.Post("/archive/import", s.importArchive)
		r.Post("/archive/cleanup", s.runCleanup)
		r.Delete("/archive", s.clearArchive)
	})
}

func (s *Server) searchOrders(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")

	t0 := time.Now()
	res, err := s.engine.Search(r.Context(), term)
	if err != nil {
		if errors.Is(err, domain.ErrSearchUnavailable) {
			http.Error(w, "archive search unavailable", http.StatusServiceUnavailable)
			return
		}
		s.logger.Error("search failed", zap.String("term", term), zap.Error(err))
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}
	observability.AppendServerTiming(w, "search", sinceMs(t0), "")
	writeJSON(w, res)
}

func (s *Server) resolveOrder(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")
	if term == "" {
		http.Error(w, "term required", http.StatusBadRequest)
		return
	}

	t0 := time.Now()
	order, err := s.resolver.Resolve(r.Context(), term)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	observability.AppendServerTiming(w, "resolve", sinceMs(t0), "")
	writeJSON(w, order)
}

func (s *Server) scanLabel(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 64<<10))
	if err != nil || len(payload) == 0 {
		http.Error(w, "scan payload required", http.StatusBadRequest)
		return
	}

	order, err := s.resolver.ResolveScan(r.Context(), string(payload))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, order)
}

type archiveRequest struct {
	FileName string         `json:"file_name"`
	Orders   []domain.Order `json:"orders"`
}

func (s *Server) archiveBatch(w http.ResponseWriter, r *http.Request) {
	var req archiveRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.FileName == "" {
		http.Error(w, "file_name is required", http.StatusBadRequest)
		return
	}

	t0 := time.Now()
	written, err := s.archiver.ArchiveOrders(r.Context(), req.Orders, req.FileName)
	if err != nil {
		if errors.Is(err, domain.ErrStorageUnavailable) {
			http.Error(w, "archive unavailable", http.StatusServiceUnavailable)
			return
		}
		s.logger.Error("archive batch failed", zap.String("file_name", req.FileName), zap.Error(err))
		http.Error(w, "archive failed", http.StatusInternalServerError)
		return
	}
	observability.SetIfPos(w, "X-DB-Write-Ms", sinceMs(t0))
	writeJSON(w, map[string]int{"written": written})
}

func sinceMs(t0 time.Time) float64 {
	return float64(time.Since(t0).Microseconds()) / 1000.0
}

func (s *Server) sessionOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.session.Orders())
}

type loadRequest struct {
	Source string `json:"source"`
	Status string `json:"status,omitempty"`
	Tag    string `json:"tag,omitempty"`
}

func (s *Server) loadFromSource(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	src, ok := s.sources[req.Source]
	if !ok {
		http.Error(w, "unknown order source "+req.Source, http.StatusBadRequest)
		return
	}

	loaded, err := s.session.LoadFromSource(r.Context(), src, source.Filter{Status: req.Status, Tag: req.Tag})
	if err != nil {
		s.logger.Error("source load failed", zap.String("source", req.Source), zap.Error(err))
		http.Error(w, "could not load orders from "+req.Source, http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]int{"loaded": loaded})
}

// loadFromFile accepts either a raw delimited file (multipart, with an
// operator-chosen column mapping) or an already-parsed JSON batch.
func (s *Server) loadFromFile(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		s.loadFromUpload(w, r)
		return
	}

	var req archiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.FileName == "" {
		http.Error(w, "file_name is required", http.StatusBadRequest)
		return
	}
	loaded := s.session.LoadFromFile(r.Context(), req.Orders, req.FileName)
	writeJSON(w, map[string]int{"loaded": loaded})
}

func (s *Server) loadFromUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "upload file required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	var mapping map[string]string
	if err := json.Unmarshal([]byte(r.FormValue("mapping")), &mapping); err != nil {
		http.Error(w, "column mapping required", http.StatusBadRequest)
		return
	}

	orders, err := s.parser.Parse(r.Context(), file, mapping, r.FormValue("file_date"))
	if err != nil {
		if errors.Is(err, domain.ErrImportFormat) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "upload parse failed", http.StatusInternalServerError)
		return
	}

	loaded := s.session.LoadFromFile(r.Context(), orders, header.Filename)
	writeJSON(w, map[string]int{"loaded": loaded})
}

type completeRequest struct {
	OrderNumber string `json:"order_number"`
	SKU         string `json:"sku"`
	Completed   bool   `json:"completed"`
}

func (s *Server) completeOrder(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	err := s.session.SetCompleted(r.Context(), req.OrderNumber, req.SKU, req.Completed)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrRemoteUpdate):
		http.Error(w, "status not updated remotely for "+req.OrderNumber+", change reverted", http.StatusBadGateway)
	case err != nil:
		http.Error(w, "status update failed", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) archiveStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		http.Error(w, "archive unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, stats)
}

func (s *Server) archiveBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.store.Batches(r.Context())
	if err != nil {
		http.Error(w, "archive unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, batches)
}

func (s *Server) exportArchive(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Search(r.Context(), "")
	if err != nil {
		http.Error(w, "archive unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+codec.ExportFileName(time.Now())+`"`)
	if err := codec.WriteCSV(w, res.Orders); err != nil {
		s.logger.Error("export write failed", zap.Error(err))
	}
}

func (s *Server) importArchive(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "backup file required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	orders, err := codec.ReadCSV(file)
	if err != nil {
		if errors.Is(err, domain.ErrImportFormat) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "import failed", http.StatusInternalServerError)
		return
	}

	written, err := s.archiver.ArchiveOrders(r.Context(), orders, codec.ImportFileName(header.Filename))
	if err != nil {
		http.Error(w, "archive unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]int{"written": written})
}

func (s *Server) runCleanup(w http.ResponseWriter, r *http.Request) {
	if err := s.cleaner.Run(r.Context()); err != nil {
		s.logger.Warn("cleanup run incomplete", zap.Error(err))
		http.Error(w, "cleanup incomplete", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearArchive(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(r.Context()); err != nil {
		http.Error(w, "archive unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// MountMetrics exposes a scrape handler (promhttp) on /metrics.
func (s *Server) MountMetrics(h http.Handler) {
	s.mux.Handle("/metrics", h)
}

func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return srv.ListenAndServe()
}
