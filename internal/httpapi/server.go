// ABOUTME: HTTP server wiring for the relay API: routes, recovery middleware, shutdown.
// ABOUTME: Handlers live in handlers.go; this file owns the net/http plumbing.

package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/2389/wa-relay/internal/resolver"
	"github.com/2389/wa-relay/internal/store"
	"github.com/2389/wa-relay/internal/wa"
)

// Sender is the slice of the session controller the API uses.
type Sender interface {
	Ready() bool
	Send(ctx context.Context, dest resolver.Destination, text string) (wa.Chat, error)
}

// AuditLog records and lists relayed messages. May be nil to disable the
// audit endpoints.
type AuditLog interface {
	RecordSend(ctx context.Context, destination, chatJID, content string) error
	RecentSends(ctx context.Context, limit int) ([]store.Message, error)
}

// Server is the relay's HTTP API server.
type Server struct {
	session    Sender
	audit      AuditLog
	logger     *slog.Logger
	httpServer *http.Server
}

// New creates a server listening on addr.
func New(addr string, session Sender, audit AuditLog, logger *slog.Logger) *Server {
	s := &Server{
		session: session,
		audit:   audit,
		logger:  logger.With("component", "httpapi"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/send", s.handleSend)
	mux.HandleFunc("/send-to", s.handleSendTo)
	mux.HandleFunc("/log", s.handleLog)
	mux.HandleFunc("/messages", s.handleMessages)
	mux.HandleFunc("/", s.handleNotFound)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.recover(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the server's root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// recover converts handler panics into a generic 500 without leaking
// internal detail.
func (s *Server) recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic", "path", r.URL.Path, "panic", rec)
				s.writeJSON(w, http.StatusInternalServerError, map[string]any{
					"success": false,
					"error":   "Internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("error encoding response", "error", err)
	}
}

// sendError writes the API's uniform failure shape.
func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}

// timestamp returns the RFC 3339 UTC timestamp included in every response.
func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
