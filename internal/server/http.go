// SPDX-License-Identifier: EPL-2.0

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ik5/audconv/convert"
	"github.com/ik5/audconv/engine"
	"github.com/ik5/audconv/formats"
	"github.com/ik5/audconv/internal/metrics"
)

// multipart overhead allowed on top of the file size
const formOverhead = 1 << 20

// Converter is the part of convert.Converter the server needs.
type Converter interface {
	Convert(ctx context.Context, req convert.Request, sink convert.ProgressSink) (*convert.Result, error)
	Backend(f formats.Format) formats.Backend
}

// Config contains HTTP server configuration
type Config struct {
	Address       string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	MaxConcurrent int
	MaxUploadSize int64
	Logger        *slog.Logger
	// Metrics may be nil, which also disables /metrics.
	Metrics *metrics.Metrics
}

// HTTPServer provides the conversion API
type HTTPServer struct {
	server    *http.Server
	logger    *slog.Logger
	conv      Converter
	metrics   *metrics.Metrics
	upgrader  websocket.Upgrader
	slots     chan struct{}
	maxUpload int64
	startTime time.Time
}

// NewHTTPServer creates a new HTTP API server
func NewHTTPServer(cfg Config, conv Converter) *HTTPServer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = convert.DefaultMaxInputSize
	}

	h := &HTTPServer{
		logger:    logger.With("component", "http"),
		conv:      conv,
		metrics:   cfg.Metrics,
		slots:     make(chan struct{}, cfg.MaxConcurrent),
		maxUpload: cfg.MaxUploadSize,
		startTime: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 << 10,
			WriteBufferSize: 64 << 10,
		},
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:         cfg.Address,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.withMetrics("/health", h.handleHealth))
	mux.HandleFunc("GET /api/v1/formats", h.withMetrics("/api/v1/formats", h.handleFormats))
	mux.HandleFunc("POST /api/v1/convert", h.withMetrics("/api/v1/convert", h.handleConvert))
	mux.HandleFunc("GET /ws/convert", h.handleWebSocket)

	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}
}

// Handler returns the routed handler, for tests and embedding
func (h *HTTPServer) Handler() http.Handler {
	return h.server.Handler
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler(ww, r)

		if h.metrics != nil {
			h.metrics.RecordHTTPRequest(r.Method, endpoint, ww.statusCode, time.Since(start).Seconds())
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server in the background
func (h *HTTPServer) Start() error {
	h.logger.Info("starting HTTP API server", "address", h.server.Addr)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("HTTP server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("stopping HTTP API server")

	return h.server.Shutdown(ctx)
}

// acquire takes a conversion slot, waiting until one frees up or ctx ends
func (h *HTTPServer) acquire(ctx context.Context) error {
	select {
	case h.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *HTTPServer) release() { <-h.slots }

func (h *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "healthy",
		"timestamp":          time.Now().UTC(),
		"uptime":             time.Since(h.startTime).String(),
		"active_conversions": len(h.slots),
	})
}

// FormatInfo describes one output format
type FormatInfo struct {
	ID        string `json:"id"`
	MIMEType  string `json:"mime_type"`
	Extension string `json:"extension"`
	Lossy     bool   `json:"lossy"`
	Backend   string `json:"backend"`
}

func (h *HTTPServer) handleFormats(w http.ResponseWriter, _ *http.Request) {
	var out []FormatInfo
	for _, f := range formats.All() {
		out = append(out, FormatInfo{
			ID:        f.String(),
			MIMEType:  f.MIMEType(),
			Extension: f.Extension(),
			Lossy:     f.Lossy(),
			Backend:   h.conv.Backend(f).String(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"formats": out})
}

func (h *HTTPServer) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	format, err := formats.ParseFormat(q.Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	quality, err := parseQuality(q.Get("bitrate"), q.Get("compression"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+formOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, statusFor(err), fmt.Errorf("reading upload: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, statusFor(err), fmt.Errorf("reading upload: %w", err))
		return
	}

	if err := h.acquire(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	defer h.release()

	res, err := h.conv.Convert(r.Context(), convert.Request{
		File:    engine.File{Name: header.Filename, MIMEType: header.Header.Get("Content-Type"), Data: data},
		Format:  format,
		Quality: quality,
	}, nil)
	if err != nil {
		h.logger.Warn("conversion request failed", "file", header.Filename, "format", format, "error", err)
		writeError(w, statusFor(err), err)
		return
	}

	w.Header().Set("Content-Type", res.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", formats.SanitizeFilename(res.Filename)))
	w.Header().Set("X-Conversion-Id", res.ID)
	w.Header().Set("X-Conversion-Backend", res.Backend.String())
	w.WriteHeader(http.StatusOK)
	w.Write(res.Data)
}

func parseQuality(bitrate, compression string) (convert.Quality, error) {
	var q convert.Quality

	if bitrate != "" {
		v, err := strconv.Atoi(bitrate)
		if err != nil {
			return q, fmt.Errorf("bitrate must be an integer in kbps: %q", bitrate)
		}
		q.Bitrate = v
	}
	if compression != "" {
		v, err := strconv.Atoi(compression)
		if err != nil {
			return q, fmt.Errorf("compression must be an integer: %q", compression)
		}
		q.CompressionLevel = &v
	}

	return q, nil
}

// statusFor maps conversion failures onto HTTP status codes
func statusFor(err error) int {
	var (
		maxErr  *http.MaxBytesError
		convErr *convert.ConversionError
	)

	switch {
	case errors.As(err, &maxErr), errors.Is(err, convert.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, convert.ErrValidation), errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.As(err, &convErr):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
