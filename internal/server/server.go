// Package server exposes the presentation store over HTTP.
//
// Routes:
//
//	GET    /api/presentations                         deck summaries
//	POST   /api/presentations                         create a deck
//	POST   /api/presentations/import                  import an exported document
//	GET    /api/presentations/{id}                    full deck
//	DELETE /api/presentations/{id}                    delete a deck
//	GET    /api/presentations/{id}/export             download an export document
//	PUT    /api/presentations/{id}/slides/{slide}/canvas  debounced canvas edit
//	GET    /api/folders                               folder tree
//	GET    /api/templates                             template catalogue
//	GET|PUT|DELETE /api/previews/{slide}              slide thumbnails
//	POST   /api/chat                                  chat relay
//	GET    /ws                                        change feed
//	GET    /metrics                                   Prometheus metrics
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/roach88/slideboard/internal/chat"
	"github.com/roach88/slideboard/internal/engine"
	"github.com/roach88/slideboard/internal/metrics"
	"github.com/roach88/slideboard/internal/preview"
)

// Deps are the collaborators of a Server. Chat and Metrics may be nil.
type Deps struct {
	Store    *engine.Store
	Canvas   *engine.CanvasSync
	Previews *preview.Store
	Chat     *chat.Client
	Metrics  *metrics.Recorder
	Log      *zap.Logger
}

// Server is the HTTP front end.
type Server struct {
	deps   Deps
	log    *zap.Logger
	hub    *Hub
	router *mux.Router
}

// New wires the routes and starts the change feed.
func New(deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Canvas == nil {
		deps.Canvas = engine.NewCanvasSync(deps.Store, engine.DefaultDebounce)
	}
	s := &Server{deps: deps, log: deps.Log}
	s.hub = NewHub(deps.Store, deps.Previews, deps.Metrics, deps.Log)
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/presentations", s.listPresentations).Methods(http.MethodGet)
	api.HandleFunc("/presentations", s.createPresentation).Methods(http.MethodPost)
	api.HandleFunc("/presentations/import", s.importPresentation).Methods(http.MethodPost)
	api.HandleFunc("/presentations/{id}", s.getPresentation).Methods(http.MethodGet)
	api.HandleFunc("/presentations/{id}", s.deletePresentation).Methods(http.MethodDelete)
	api.HandleFunc("/presentations/{id}/export", s.exportPresentation).Methods(http.MethodGet)
	api.HandleFunc("/presentations/{id}/slides/{slide}/canvas", s.updateCanvas).Methods(http.MethodPut)
	api.HandleFunc("/folders", s.folderTree).Methods(http.MethodGet)
	api.HandleFunc("/templates", s.listTemplates).Methods(http.MethodGet)
	api.HandleFunc("/previews/{slide}", s.getPreview).Methods(http.MethodGet)
	api.HandleFunc("/previews/{slide}", s.putPreview).Methods(http.MethodPut)
	api.HandleFunc("/previews/{slide}", s.deletePreview).Methods(http.MethodDelete)
	api.HandleFunc("/chat", s.chat).Methods(http.MethodPost)

	r.Handle("/ws", s.hub)
	if s.deps.Metrics != nil {
		r.Handle("/metrics", s.deps.Metrics.Handler())
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close flushes pending canvas edits and disconnects feed clients.
func (s *Server) Close() {
	s.deps.Canvas.Close()
	s.hub.Close()
}

// ListenAndServe serves on addr until ctx ends, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush lets streaming handlers flush through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the wrapped writer to http.ResponseController and the
// websocket upgrader.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}
