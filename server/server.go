// Package server exposes the relay over HTTP: a synchronous chat endpoint,
// a server-sent-events streaming endpoint and a health probe, with an
// optional bearer token gate on the chat routes.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/agentrelay/core"
	"github.com/hupe1980/agentrelay/logging"
)

// Dispatcher is the core surface the transport layer needs. It is satisfied
// by orchestrator.Orchestrator and by the root Relay facade.
type Dispatcher interface {
	Dispatch(ctx context.Context, threadID, message string) (string, error)
	DispatchStream(ctx context.Context, threadID, message string) (<-chan string, error)
}

// Options configures a Server instance.
type Options struct {
	// Name identifies the relay in health responses.
	Name string
	// AuthToken, when set, gates the chat routes behind a bearer token.
	AuthToken string
	// ReadTimeout and WriteTimeout apply to the underlying http.Server. A
	// zero WriteTimeout is kept as zero so streams are not cut off.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       logging.Logger
}

// Server routes HTTP traffic to a Dispatcher.
type Server struct {
	dispatcher Dispatcher
	opts       Options
	logger     logging.Logger
}

// New creates a Server wrapping the given dispatcher.
func New(dispatcher Dispatcher, optFns ...func(o *Options)) *Server {
	opts := Options{
		Name:        "agentrelay",
		ReadTimeout: 30 * time.Second,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Server{
		dispatcher: dispatcher,
		opts:       opts,
		logger:     opts.Logger,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.withAuth(s.handleChat))
	mux.HandleFunc("POST /chat/stream", s.withAuth(s.handleChatStream))
	mux.HandleFunc("GET /health", s.handleHealth)

	return mux
}

// ListenAndServe blocks serving HTTP on the given address until the context
// is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("http server listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type chatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id,omitempty"`
}

type chatResponse struct {
	Response string `json:"response"`
	ThreadID string `json:"thread_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// withAuth enforces the bearer token when one is configured. The comparison
// is constant-time to avoid leaking token prefixes.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	if s.opts.AuthToken == "" {
		return next
	}

	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			s.writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.opts.AuthToken)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next(w, r)
	}
}

// decodeChatRequest parses and validates the request body. A missing
// thread id gets a generated one so each response can echo it back.
func decodeChatRequest(r *http.Request) (chatRequest, error) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}
	if strings.TrimSpace(req.Message) == "" {
		return req, errors.New("message is required")
	}
	if req.ThreadID == "" {
		req.ThreadID = uuid.NewString()
	}

	return req, nil
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	response, err := s.dispatcher.Dispatch(r.Context(), req.ThreadID, req.Message)
	if err != nil {
		s.writeDispatchError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, chatResponse{Response: response, ThreadID: req.ThreadID})
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	units, err := s.dispatcher.DispatchStream(r.Context(), req.ThreadID, req.Message)
	if err != nil {
		s.writeDispatchError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	for {
		select {
		case <-r.Context().Done():
			return
		case unit, ok := <-units:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", unit)
			flusher.Flush()
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"agent":  s.opts.Name,
	})
}

// writeDispatchError maps typed core errors onto HTTP status codes.
func (s *Server) writeDispatchError(w http.ResponseWriter, err error) {
	var invErr *core.InvocationError
	var storeErr *core.StoreUnavailableError

	switch {
	case errors.Is(err, core.ErrNoAgentAvailable):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &invErr):
		s.writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &storeErr):
		s.writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.logger.Error("dispatch failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
