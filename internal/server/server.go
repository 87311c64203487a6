// Package server exposes the cycle-count operations over HTTP/JSON.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/calvinalkan/cycle-count/internal/count"
	"github.com/calvinalkan/cycle-count/internal/logging"
	"github.com/calvinalkan/cycle-count/internal/report"
	"github.com/calvinalkan/cycle-count/internal/session"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Options configures [New]. Tracker, Index and Sessions are required.
type Options struct {
	Workers  []string
	Tracker  *count.Tracker
	Index    *report.Index
	Sessions *session.Store
	Logger   *logging.Logger

	// Now defaults to time.Now. Only export filenames use it.
	Now func() time.Time
}

// Server holds the dependencies shared by all handlers.
type Server struct {
	workers  []string
	tracker  *count.Tracker
	index    *report.Index
	sessions *session.Store
	log      *logging.Logger
	now      func() time.Time
}

// New returns a Server. It does not listen; see [Server.Handler] and [Serve].
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.New(nil)
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Server{
		workers:  opts.Workers,
		tracker:  opts.Tracker,
		index:    opts.Index,
		sessions: opts.Sessions,
		log:      opts.Logger,
		now:      opts.Now,
	}
}

// Handler returns the router with all routes and middleware installed.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(NewLoggingMiddleware(s.log))
	r.Use(func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, maxBodyBytes)
	})
	r.Use(NewSessionMiddleware())

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/workers", s.listWorkers)

	r.Route("/assignments", func(r chi.Router) {
		r.Post("/", s.createAssignment)
		r.Get("/", s.listAssignments)
	})

	r.Route("/submissions", func(r chi.Router) {
		r.Post("/", s.createSubmission)
		r.Get("/export", s.exportSubmissions)
	})

	r.Get("/dashboard", s.dashboard)

	r.Get("/session", s.getSession)
	r.Put("/session", s.updateSession)

	return r
}

// Serve serves h on ln until ctx is canceled. In-flight requests get
// up to 10 seconds to finish.
func Serve(ctx context.Context, ln net.Listener, h http.Handler, log *logging.Logger) error {
	if log == nil {
		log = logging.New(nil)
	}

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.Serve(ln)
	}()

	log.Info(ctx, "server started", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info(ctx, "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info(ctx, "server stopped")

	return nil
}
