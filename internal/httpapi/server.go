// Package httpapi exposes terradraw-core's debug/inspection HTTP
// surface: liveness, Prometheus metrics, and a GeoJSON
// export/import of the store's current feature set. Grounded on the
// teacher's internal/core/server.Run (chi router + middleware stack +
// graceful shutdown) and internal/core/router (the validated-handler
// + statusWriter pattern), generalised from a spatial-query endpoint
// to a feature CRUD-lite surface.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/terradraw-core/internal/logger"
	"github.com/mohammed-shakir/terradraw-core/internal/metrics"
	"github.com/mohammed-shakir/terradraw-core/internal/model"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

// Config controls the HTTP server Run starts.
type Config struct {
	Addr string
}

// Server wires a chi.Router over st, optionally reporting request
// metrics via a *metrics.Provider.
type Server struct {
	router   chi.Router
	cfg      Config
	log      zerolog.Logger
	store    store.Store
	metrics  *metrics.Provider
	onChange func(ids []string, op string)
}

// New constructs a Server. metricsProvider may be nil (no metrics
// routes/observations). onChange, typically the owning
// Coordinator.HandleChange, is invoked once per change-batch bucket for
// every mutation this server performs directly (import, delete) so the
// spatial index and metrics stay in sync with HTTP-driven writes the
// same way they do with mode-driven ones; it may be nil.
func New(cfg Config, log zerolog.Logger, st store.Store, metricsProvider *metrics.Provider, onChange func(ids []string, op string)) *Server {
	s := &Server{cfg: cfg, log: log, store: st, metrics: metricsProvider, onChange: onChange}
	r := chi.NewRouter()
	r.Use(s.recoverMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(corsMiddleware)

	r.Get("/healthz", s.handleHealthz)
	if metricsProvider != nil {
		r.Get("/metrics", metricsProvider.Handler().ServeHTTP)
	}
	r.Get("/features", s.handleExportFeatures)
	r.Post("/features", s.handleImportFeatures)
	r.Delete("/features/{id}", s.handleDeleteFeature)

	s.router = r
	return s
}

// Router exposes the underlying chi.Router for tests.
func (s *Server) Router() chi.Router { return s.router }

// openScope mirrors mode.Base.OpenScope's ChangeBatch-to-onChange
// fan-out, so HTTP-driven mutations feed the same per-bucket
// notifications a mode's own scope would.
func (s *Server) openScope() *store.Scope {
	return s.store.Scope(func(batch model.ChangeBatch) {
		if s.onChange == nil {
			return
		}
		if len(batch.Created) > 0 {
			s.onChange(batch.Created, "create")
		}
		if len(batch.Updated) > 0 {
			s.onChange(batch.Updated, "update")
		}
		if len(batch.Deleted) > 0 {
			s.onChange(batch.Deleted, "delete")
		}
	})
}

// Run starts listening and blocks until ctx is cancelled or the server
// fails, per the teacher's context-driven graceful-shutdown shape.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("http listen")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleExportFeatures serves the store's full contents (overlays
// included) as a GeoJSON FeatureCollection.
func (s *Server) handleExportFeatures(w http.ResponseWriter, _ *http.Request) {
	fc := model.NewFeatureCollection(s.store.CopyAll())
	w.Header().Set("Content-Type", "application/geo+json")
	_ = json.NewEncoder(w).Encode(fc)
}

// handleImportFeatures creates every feature in a posted
// FeatureCollection inside a single mutation scope (draft: false — an
// imported feature is expected to already be a valid, finished shape).
func (s *Server) handleImportFeatures(w http.ResponseWriter, r *http.Request) {
	var fc model.FeatureCollection
	if err := json.NewDecoder(r.Body).Decode(&fc); err != nil {
		http.Error(w, "invalid GeoJSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	entries := make([]store.CreateEntry, 0, len(fc.Features))
	for _, f := range fc.Features {
		entries = append(entries, store.CreateEntry{ID: f.ID, Geometry: f.Geometry, Properties: f.Properties})
	}
	scope := s.openScope()
	ids, err := scope.Create(entries)
	if err != nil {
		scope.Close()
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	scope.Close()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ids": ids})
}

func (s *Server) handleDeleteFeature(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.store.Has(id) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	scope := s.openScope()
	err := scope.Delete([]string{id})
	scope.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = logger.NewID()
			w.Header().Set("X-Request-ID", reqID)
		}
		ctx := logger.WithRequestID(r.Context(), reqID)

		next.ServeHTTP(sw, r.WithContext(ctx))

		dur := time.Since(start)
		s.log.Debug().Str("request_id", reqID).Str("method", r.Method).
			Str("path", r.URL.Path).Int("status", sw.code).Dur("duration", dur).Msg("http request")
		if s.metrics != nil {
			s.metrics.ObserveHTTP(r.Method, r.URL.Path, sw.code, dur.Seconds())
		}
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error().Interface("panic", rec).Msg("panic recovered")
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
