// Package api provides the REST endpoints for converting reservation
// documents and browsing the conversion archive.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pnr_parser/internal/engine"
	"pnr_parser/internal/itinerary"
	"pnr_parser/internal/metrics"
	"pnr_parser/internal/pnr"
	"pnr_parser/internal/render"
	"pnr_parser/internal/storage"
)

// maxBodyBytes caps uploaded reservation documents.
const maxBodyBytes = 10 << 20

// Store is the archive the API reads and writes. The SQLite and
// PostgreSQL archives both satisfy it.
type Store interface {
	Insert(ctx context.Context, c storage.Conversion) (int64, error)
	GetByID(ctx context.Context, id int64) (*storage.Conversion, error)
	Recent(ctx context.Context, limit int) ([]storage.Conversion, error)
}

// EventSink receives one analytics event per finished conversion. The
// ClickHouse sink satisfies it.
type EventSink interface {
	Insert(ctx context.Context, ev storage.ConversionEvent) error
}

// Config holds configuration for the conversion API server.
type Config struct {
	Addr     string
	APIKeys  []string // non-empty enables authentication
	Language string   // default render language
	Gatherer prometheus.Gatherer
	Events   EventSink // optional analytics sink
}

// Server exposes the conversion engine over HTTP. The store may be
// nil, in which case the archive endpoints answer 503.
type Server struct {
	store    Store
	events   EventSink
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	log      *zap.SugaredLogger
	addr     string
	language string
	apiKeys  map[string]bool
}

// NewServer creates a conversion API server.
func NewServer(cfg Config, store Store, m *metrics.Metrics, log *zap.SugaredLogger) *Server {
	keys := make(map[string]bool)
	for _, k := range cfg.APIKeys {
		if k != "" {
			keys[k] = true
		}
	}

	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	language := cfg.Language
	if language == "" {
		language = "en"
	}

	return &Server{
		store:    store,
		events:   cfg.Events,
		metrics:  m,
		gatherer: gatherer,
		log:      log,
		addr:     cfg.Addr,
		language: language,
		apiKeys:  keys,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	// Health and metrics stay open even when auth is enabled.
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		if len(s.apiKeys) > 0 {
			r.Use(s.authMiddleware)
		}

		r.Post("/convert", s.handleConvert)
		r.Get("/conversions", s.handleListConversions)
		r.Get("/conversions/{id}", s.handleGetConversion)
	})

	return r
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Infow("api listening", "addr", s.addr, "auth", len(s.apiKeys) > 0)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// requestLogger logs each request and feeds the http_requests counter.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		s.log.Infow("request",
			"method", r.Method,
			"route", route,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates API key authentication.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check X-API-Key header first.
		apiKey := r.Header.Get("X-API-Key")

		// Fall back to Authorization: Bearer <key>.
		if apiKey == "" {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				apiKey = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "API key required")
			return
		}

		if !s.apiKeys[apiKey] {
			writeError(w, http.StatusForbidden, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ConvertRequest is the JSON request body for the convert endpoint.
// Posting text/plain instead sends the document as the raw body.
type ConvertRequest struct {
	Text    string          `json:"text"`
	Options *render.Options `json:"options,omitempty"`
	Render  bool            `json:"render,omitempty"`
	Year    int             `json:"year,omitempty"`
}

// RenderedViews carries the display renderings of an itinerary.
type RenderedViews struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

// ConvertResponse is the JSON response for the convert endpoint.
type ConvertResponse struct {
	ID        int64                  `json:"id,omitempty"`
	Format    string                 `json:"format"`
	Itinerary *itinerary.ParseResult `json:"itinerary"`
	Rendered  *RenderedViews         `json:"rendered,omitempty"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	req, err := decodeConvertRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	year := req.Year
	if year == 0 {
		year = time.Now().Year()
	}

	format := pnr.DetectFormat(req.Text)

	start := time.Now()
	result := engine.ConvertAt(req.Text, year)
	s.metrics.ConversionTime.Observe(time.Since(start).Seconds())
	s.metrics.ConversionsTotal.WithLabelValues(string(format)).Inc()
	s.metrics.SegmentsPerConversion.Observe(float64(len(result.Segments)))
	if len(result.Segments) == 0 {
		s.metrics.EmptyConversions.Inc()
	}

	resp := ConvertResponse{
		Format:    string(format),
		Itinerary: result,
	}

	if req.Render {
		opts := render.DefaultOptions()
		if req.Options != nil {
			opts = *req.Options
		}
		if opts.Language == "" {
			opts.Language = s.language
		}
		resp.Rendered = &RenderedViews{
			Text: render.Text(result, opts),
			HTML: render.HTML(result, opts),
		}
	}

	// Archiving and analytics are best effort; a failed insert never
	// fails the request.
	if s.store != nil || s.events != nil {
		record, err := storage.NewConversion(string(format), req.Text, result)
		if err == nil {
			if s.store != nil {
				id, insertErr := s.store.Insert(r.Context(), record)
				if insertErr != nil {
					s.log.Warnw("archive insert failed", "error", insertErr)
				} else {
					resp.ID = id
				}
			}
			if s.events != nil {
				ev := storage.NewConversionEvent(uint64(resp.ID), record, result.Segments)
				if evErr := s.events.Insert(r.Context(), ev); evErr != nil {
					s.log.Warnw("analytics insert failed", "error", evErr)
				}
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// decodeConvertRequest accepts either a JSON body or a raw text/plain
// document with query-string options.
func decodeConvertRequest(w http.ResponseWriter, r *http.Request) (ConvertRequest, error) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req ConvertRequest
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			return ConvertRequest{}, fmt.Errorf("invalid JSON: %w", err)
		}
		return req, nil
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return ConvertRequest{}, err
	}

	req := ConvertRequest{Text: string(raw)}
	q := r.URL.Query()
	if v := q.Get("render"); v == "1" || v == "true" {
		req.Render = true
	}
	if lang := q.Get("lang"); lang != "" {
		opts := render.DefaultOptions()
		opts.Language = lang
		req.Options = &opts
	}
	if y := q.Get("year"); y != "" {
		year, convErr := strconv.Atoi(y)
		if convErr != nil {
			return ConvertRequest{}, fmt.Errorf("invalid year: %w", convErr)
		}
		req.Year = year
	}
	return req, nil
}

// ConversionRecord is an archived conversion with its result inlined.
type ConversionRecord struct {
	ID           int64           `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	Format       string          `json:"format"`
	Passengers   int             `json:"passengers"`
	Bags         string          `json:"bags,omitempty"`
	Currency     string          `json:"currency,omitempty"`
	Total        float64         `json:"total,omitempty"`
	SegmentCount int             `json:"segment_count"`
	InputText    string          `json:"input_text"`
	Result       json.RawMessage `json:"result"`
}

func recordToResponse(c storage.Conversion) ConversionRecord {
	return ConversionRecord{
		ID:           c.ID,
		CreatedAt:    c.CreatedAt,
		Format:       c.Format,
		Passengers:   c.Passengers,
		Bags:         c.Bags,
		Currency:     c.Currency,
		Total:        c.Total,
		SegmentCount: c.SegmentCount,
		InputText:    c.InputText,
		Result:       json.RawMessage(c.ResultJSON),
	}
}

// ConversionSummary is one row of the archive listing; it omits the
// document and result bodies.
type ConversionSummary struct {
	ID           int64     `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Format       string    `json:"format"`
	Passengers   int       `json:"passengers"`
	Currency     string    `json:"currency,omitempty"`
	Total        float64   `json:"total,omitempty"`
	SegmentCount int       `json:"segment_count"`
}

func summaryToResponse(c storage.Conversion) ConversionSummary {
	return ConversionSummary{
		ID:           c.ID,
		CreatedAt:    c.CreatedAt,
		Format:       c.Format,
		Passengers:   c.Passengers,
		Currency:     c.Currency,
		Total:        c.Total,
		SegmentCount: c.SegmentCount,
	}
}

func (s *Server) handleGetConversion(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "archive not configured")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversion id")
		return
	}

	c, err := s.store.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "conversion not found")
		return
	}

	writeJSON(w, http.StatusOK, recordToResponse(*c))
}

func (s *Server) handleListConversions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "archive not configured")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	if limit > 100 {
		limit = 100
	}

	conversions, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summaries := make([]ConversionSummary, 0, len(conversions))
	for _, c := range conversions {
		summaries = append(summaries, summaryToResponse(c))
	}

	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Helper functions.

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
