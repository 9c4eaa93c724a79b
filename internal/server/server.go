// Package server exposes graph drafts over HTTP: storage, automatic
// layout, graph checks and canonical snapshots.
//
// Routes:
//
//	GET    /healthz
//	GET    /graphs
//	GET    /graphs/{id}
//	PUT    /graphs/{id}
//	DELETE /graphs/{id}
//	POST   /graphs/{id}/layout?direction=LR&dry_run=true
//	POST   /graphs/{id}/check
//	POST   /snapshot
//
// Every mutating request runs through an [editor.Session], so stored
// drafts obey the same validation as interactive edits.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowbuilder/pkg/cache"
	"github.com/matzehuels/flowbuilder/pkg/editor"
	"github.com/matzehuels/flowbuilder/pkg/store"
)

const (
	DefaultAddr         = "127.0.0.1:8080"
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 30 * time.Second

	// maxBodyBytes bounds request bodies.
	maxBodyBytes = 8 << 20
)

// Options configure a Server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// AllowedOrigin is sent as Access-Control-Allow-Origin. Empty disables CORS headers.
	AllowedOrigin string

	// Editor is the template for the sessions that serve each request.
	// Its Cache also holds check reports.
	Editor editor.Options

	Logger *log.Logger
}

// Server serves the HTTP API.
type Server struct {
	store  store.Store
	cache  cache.Cache
	keyer  cache.Keyer
	opts   Options
	logger *log.Logger

	registryHash string
	started      time.Time
	router       chi.Router
}

// New creates a server over st. It does not take ownership of st.
func New(st store.Store, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Editor.Logger == nil {
		opts.Editor.Logger = opts.Logger
	}
	if opts.Editor.Cache == nil {
		opts.Editor.Cache = cache.NewNullCache()
	}
	if opts.Editor.Keyer == nil {
		opts.Editor.Keyer = cache.NewDefaultKeyer()
	}

	s := &Server{
		store:   st,
		cache:   opts.Editor.Cache,
		keyer:   opts.Editor.Keyer,
		opts:    opts,
		logger:  opts.Logger,
		started: time.Now(),
	}
	if data, err := json.Marshal(opts.Editor.Registry); err == nil {
		s.registryHash = cache.Hash(data)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.opts.AllowedOrigin != "" {
		r.Use(cors(s.opts.AllowedOrigin))
	}

	r.Get("/healthz", s.handleHealth)
	r.Post("/snapshot", s.handleSnapshot)
	r.Route("/graphs", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Put("/", s.handlePut)
			r.Delete("/", s.handleDelete)
			r.Post("/layout", s.handleLayout)
			r.Post("/check", s.handleCheck)
		})
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.opts.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
