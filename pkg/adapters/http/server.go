package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/titrate"
	"github.com/aretw0/titrate/api"
	"github.com/aretw0/titrate/internal/dto"
	"github.com/aretw0/titrate/internal/validator"
	"github.com/aretw0/titrate/pkg/domain"
	"github.com/aretw0/titrate/pkg/policy"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes bounds a single /evaluate request.
const maxBodyBytes = 1 << 20

// Engine defines the subset of the titrate engine the HTTP adapter needs.
type Engine interface {
	Run(ctx context.Context, doses domain.DoseState, signals domain.ClinicalSignals) (*domain.Evaluation, error)
	Policy() policy.Policy
}

// Server serves evaluations over HTTP. The engine can be swapped at runtime
// (policy hot reload); each request uses the engine current at its start.
type Server struct {
	mu        sync.RWMutex
	engine    Engine
	validator *validator.Validator
	metrics   http.Handler
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Server.
type Option func(*Server)

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger (default slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server for engine.
func NewServer(engine Engine, opts ...Option) (*Server, error) {
	v, err := validator.New()
	if err != nil {
		return nil, err
	}
	s := &Server{
		engine:    engine,
		validator: v,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) (http.Handler, error) {
	s, err := NewServer(engine, opts...)
	if err != nil {
		return nil, err
	}
	return s.Handler(), nil
}

// SetEngine replaces the engine used by subsequent requests.
func (s *Server) SetEngine(engine Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine = engine
}

func (s *Server) current() Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)

	r.Post("/evaluate", s.Evaluate)
	r.Get("/policy", s.GetPolicy)
	r.Get("/order", s.GetOrder)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)

	// Swagger UI
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(api.Spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>titrate API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// Evaluate handles the POST /evaluate request.
func (s *Server) Evaluate(w http.ResponseWriter, r *http.Request) {
	log := s.logger.With("request_id", RequestIDFrom(r.Context()))

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Request body too large or unreadable", "invalid_request")
		log.Warn("Evaluate: Unreadable request body", "error", err)
		return
	}
	if err := s.validator.ValidateEvaluate(raw); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "invalid_request")
		log.Warn("Evaluate: Invalid request body", "error", err)
		return
	}

	var body dto.EvaluateRequest
	if err := json.Unmarshal(raw, &body); err != nil {
		if domain.IsInputError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error(), domain.RejectReason(err))
			log.Warn("Evaluate: Dose state rejected", "error", err)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body", "invalid_request")
		log.Warn("Evaluate: Invalid request body", "error", err)
		return
	}

	doses, err := body.DoseState()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error(), domain.RejectReason(err))
		log.Warn("Evaluate: Dose state rejected", "error", err)
		return
	}

	eval, err := s.current().Run(r.Context(), doses, body.Signals)
	if err != nil {
		if domain.IsInputError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error(), domain.RejectReason(err))
			log.Warn("Evaluate: Input rejected", "reason", domain.RejectReason(err), "error", err)
			return
		}
		if errors.Is(err, context.Canceled) {
			log.Info("Evaluate: Client went away")
			return
		}
		writeError(w, http.StatusInternalServerError, "Evaluation failed", "")
		log.Error("Evaluate failed", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, eval, log)
}

// GetPolicy handles the GET /policy request.
func (s *Server) GetPolicy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.current().Policy(), s.logger)
}

// GetOrder handles the GET /order request.
func (s *Server) GetOrder(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.NewOrderResponse(), s.logger)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{
		"app":         "titrate-http",
		"version":     strings.TrimSpace(titrate.Version),
		"api_version": s.validator.Version(),
	}
	writeJSON(w, http.StatusOK, resp, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{Error: msg, Reason: reason})
}
