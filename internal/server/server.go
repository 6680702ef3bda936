package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/corvino/roomtalk/internal/chat"
	"github.com/corvino/roomtalk/internal/config"
)

// HTTPServer serves the read-only API and the WebSocket session driver.
type HTTPServer struct {
	srv      *http.Server
	sessions *tracker
	cfg      config.Config
	log      *slog.Logger
}

// NewHTTP creates a configured HTTP server with all routes registered.
func NewHTTP(core *chat.Core, cfg config.Config, log *slog.Logger) *HTTPServer {
	log = log.With("component", "http")
	sessions := newTracker()
	return &HTTPServer{
		srv: &http.Server{
			Addr:         cfg.HTTPAddr(),
			Handler:      newHandler(core, cfg, sessions, log),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		sessions: sessions,
		cfg:      cfg,
		log:      log,
	}
}

// newHandler builds the route table wrapped in the logging and CORS
// middleware.
func newHandler(core *chat.Core, cfg config.Config, sessions *tracker, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	h := &Handlers{
		Core:      core,
		Config:    cfg,
		StartTime: time.Now(),
		Log:       log,
		sessions:  sessions,
	}

	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("GET /api/rooms", h.ListRooms)
	mux.HandleFunc("GET /api/rooms/{room}/occupants", h.ListOccupants)
	mux.HandleFunc("GET /ws", h.HandleWS)

	return loggingMiddleware(log, corsMiddleware(mux))
}

// Serve listens until ctx is cancelled, then shuts the server down and
// closes any WebSocket sessions.
func (s *HTTPServer) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http listener started", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := s.sessions.drain(s.cfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("ws shutdown: %w", err)
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

// Hijack lets the WebSocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func loggingMiddleware(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Microsecond),
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
