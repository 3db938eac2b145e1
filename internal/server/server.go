// Package server exposes the fact-check pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/factcheck/internal/annotate"
	"github.com/ppiankov/factcheck/internal/metrics"
	"github.com/ppiankov/factcheck/internal/model"
	"github.com/ppiankov/factcheck/internal/pipeline"
	"github.com/ppiankov/factcheck/internal/source"
)

const maxRequestBytes = 1 << 20

// Runner runs one fact-check invocation
type Runner interface {
	Run(ctx context.Context, in pipeline.Input) (*model.Report, error)
}

// RunnerFactory builds the stages for a single request
type RunnerFactory func() Runner

// FactCheckRequest is the body of POST /api/v1/factcheck
type FactCheckRequest struct {
	Text           string               `json:"text"`
	Context        *string              `json:"context,omitempty"`
	KnowledgeGraph model.KnowledgeGraph `json:"knowledge_graph,omitempty"`
}

// HighlightRequest is the body of POST /api/v1/highlight
type HighlightRequest struct {
	Article string          `json:"article"`
	Claims  []annotate.Mark `json:"claims"`
}

// HighlightResponse lists the article segments
type HighlightResponse struct {
	Segments []model.Segment `json:"segments"`
}

// SamplesResponse lists the bundled sample articles
type SamplesResponse struct {
	Samples []source.Sample `json:"samples"`
}

// Server serves the fact-check API
type Server struct {
	router     *mux.Router
	newRunner  RunnerFactory
	samplesDir string
	logger     *slog.Logger
}

// New creates a server. Every fact-check request gets its own runner from newRunner.
func New(newRunner RunnerFactory, samplesDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:     mux.NewRouter(),
		newRunner:  newRunner,
		samplesDir: samplesDir,
		logger:     logger,
	}
	s.setupRoutes()
	return s
}

const apiPrefix = "/api/v1"

func (s *Server) setupRoutes() {
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.router.HandleFunc(apiPrefix+"/factcheck", s.handleFactCheck).Methods(http.MethodPost)
	s.router.HandleFunc(apiPrefix+"/highlight", s.handleHighlight).Methods(http.MethodPost)
	s.router.HandleFunc(apiPrefix+"/samples", s.handleSamples).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusNotFound, "not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFactCheck(w http.ResponseWriter, r *http.Request) {
	var req FactCheckRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeErrorResponse(w, http.StatusBadRequest, "text is required")
		return
	}

	report, err := s.newRunner().Run(r.Context(), pipeline.Input{
		Text:    req.Text,
		Context: req.Context,
		Graph:   req.KnowledgeGraph,
	})
	if err != nil {
		s.logger.Error("fact check failed", "error", err)
		writeErrorResponse(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSONResponse(w, http.StatusOK, report)
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	var req HighlightRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	segments := annotate.Highlight(req.Article, req.Claims)
	if segments == nil {
		segments = []model.Segment{}
	}
	writeJSONResponse(w, http.StatusOK, HighlightResponse{Segments: segments})
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	samples, err := source.LoadSamples(s.samplesDir)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSONResponse(w, http.StatusOK, SamplesResponse{Samples: samples})
}

// decodeBody decodes a size-limited JSON body, rejecting unknown fields
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeJSONResponse writes a JSON response with the given status code
func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeErrorResponse writes an error response with the given status code and message
func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, map[string]any{
		"error":  message,
		"status": "error",
	})
}

// statusRecorder captures the response status for logging and metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic serving request", "path", r.URL.Path, "panic", rec)
				writeErrorResponse(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
