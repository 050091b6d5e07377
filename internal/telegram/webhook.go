package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookServer receives updates pushed by Telegram and serves a health check
type WebhookServer struct {
	path      string
	secret    string
	updates   chan tgbotapi.Update
	mux       *http.ServeMux
	server    *http.Server
	startTime time.Time
}

// NewWebhookServer creates a server listening on addr and accepting
// updates on path
func NewWebhookServer(addr, path, secret string) *WebhookServer {
	s := &WebhookServer{
		path:      path,
		secret:    secret,
		updates:   make(chan tgbotapi.Update, 100),
		mux:       http.NewServeMux(),
		startTime: time.Now(),
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.registerRoutes()
	return s
}

func (s *WebhookServer) registerRoutes() {
	s.mux.HandleFunc("POST "+s.path, s.handleUpdate)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Updates returns the channel of received updates. It is closed by Shutdown.
func (s *WebhookServer) Updates() <-chan tgbotapi.Update {
	return s.updates
}

// authenticate checks the secret token header
func (s *WebhookServer) authenticate(r *http.Request) bool {
	if s.secret == "" {
		return true
	}
	got := r.Header.Get(secretHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) == 1
}

func (s *WebhookServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if !s.authenticate(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		slog.Warn("Invalid update body", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	select {
	case s.updates <- update:
		w.WriteHeader(http.StatusOK)
	case <-r.Context().Done():
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
	}
}

func (s *WebhookServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	}); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// Start serves until Shutdown is called. It returns at once if Shutdown
// already ran.
func (s *WebhookServer) Start() error {
	slog.Info("Starting webhook server", "address", s.server.Addr, "path", redactPath(s.path))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and closes the update channel
func (s *WebhookServer) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	close(s.updates)
	return err
}

// redactPath hides everything after the first path segment. The default
// path embeds the bot token.
func redactPath(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	first, rest, ok := strings.Cut(trimmed, "/")
	if !ok || rest == "" {
		return path
	}
	return "/" + first + "/***"
}

// ServeHTTP implements http.Handler for testing
func (s *WebhookServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
