// Package http exposes the router as a chat-platform webhook.
package http

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/stagehand/pkg/domain"
	"github.com/aretw0/stagehand/pkg/ports"
	"github.com/aretw0/stagehand/pkg/router"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SecretHeader carries the webhook secret configured on the platform side.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// maxUpdateBytes bounds a single webhook body.
const maxUpdateBytes = 1 << 20

// SceneLister reports the registered scenes. *router.Router implements it.
type SceneLister interface {
	Scenes() []router.SceneInfo
}

// Option configures the handler.
type Option func(*Server)

// WithSecretToken rejects updates whose SecretHeader does not match token.
func WithSecretToken(token string) Option {
	return func(s *Server) {
		s.secret = token
	}
}

// WithMetrics serves gatherer on /metrics.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = gatherer
	}
}

// WithScenes serves the scene list on /scenes.
func WithScenes(lister SceneLister) Option {
	return func(s *Server) {
		s.scenes = lister
	}
}

// UpdateDecoder turns a webhook body into an update.
type UpdateDecoder func(body []byte) (domain.Update, error)

// WithDecoder replaces the default decoder, which expects domain.Update JSON.
func WithDecoder(decode UpdateDecoder) Option {
	return func(s *Server) {
		s.decode = decode
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Server holds the webhook dependencies.
type Server struct {
	Dispatcher ports.Dispatcher
	secret     string
	metrics    prometheus.Gatherer
	scenes     SceneLister
	decode     UpdateDecoder
	logger     *slog.Logger
}

// NewHandler creates the HTTP handler:
//
//	POST /updates   one update per request
//	GET  /health    liveness
//	GET  /scenes    registered scenes, when configured
//	GET  /metrics   Prometheus exposition, when configured
func NewHandler(dispatcher ports.Dispatcher, opts ...Option) http.Handler {
	server := &Server{Dispatcher: dispatcher, decode: decodeJSON, logger: slog.Default()}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/updates", server.PostUpdate)
	r.Get("/health", server.GetHealth)
	if server.scenes != nil {
		r.Get("/scenes", server.GetScenes)
	}
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(server.metrics, promhttp.HandlerOpts{}))
	}
	return r
}

// UpdateResponse is the body returned for POST /updates.
type UpdateResponse struct {
	Handled bool `json:"handled"`
}

// PostUpdate decodes one update and dispatches it. Platform retries are not
// wanted for updates no scene handled, so those still get 200.
func (s *Server) PostUpdate(w http.ResponseWriter, r *http.Request) {
	if s.secret != "" {
		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) != 1 {
			http.Error(w, "Invalid secret token", http.StatusUnauthorized)
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUpdateBytes))
	if err != nil {
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	update, err := s.decode(body)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PostUpdate: Invalid request body", "err", err)
		return
	}

	handled := s.Dispatcher.Dispatch(r.Context(), update)
	writeJSON(w, s.logger, UpdateResponse{Handled: handled})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

// GetScenes handles GET /scenes.
func (s *Server) GetScenes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, s.scenes.Scenes())
}

func decodeJSON(body []byte) (domain.Update, error) {
	var update domain.Update
	err := json.Unmarshal(body, &update)
	return update, err
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "err", err)
	}
}
