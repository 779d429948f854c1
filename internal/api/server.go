package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      *slog.Logger
	FactService factService   // Required
	Pool        *pgxpool.Pool // Optional: nil disables pool stats in /readyz
	TrustProxy  bool          // Trust X-Real-IP/X-Forwarded-For headers (behind reverse proxy)
	RateBurst   int           // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.FactService == nil {
		return nil, errors.New("fact service is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fh := &factHandler{service: cfg.FactService, logger: logger}
	dh := &deckHandler{logger: logger}

	mux := http.NewServeMux()

	// Fact memory
	mux.HandleFunc("POST /api/v1/facts", fh.create)
	mux.HandleFunc("GET /api/v1/facts/search", fh.search)
	mux.HandleFunc("GET /api/v1/facts/actionable", fh.actionable)
	mux.HandleFunc("GET /api/v1/facts/financial/unverified", fh.unverifiedFinancial)
	mux.HandleFunc("GET /api/v1/facts/{id}", fh.get)
	mux.HandleFunc("GET /api/v1/facts/{id}/lineage", fh.lineage)
	mux.HandleFunc("GET /api/v1/facts/{id}/similar", fh.similar)
	mux.HandleFunc("POST /api/v1/facts/{id}/verify", fh.verify)

	// Deck design
	mux.HandleFunc("POST /api/v1/deck/design", dh.design)
	mux.HandleFunc("POST /api/v1/deck/permit-plan", dh.permitPlan)

	// Rate limiter: per-IP token bucket (1 token/sec refill)
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → RateLimit → Routes
	// RequestID must be before Logging so request_id is available in log attributes.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Wrap with security headers
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w)
		handler.ServeHTTP(w, r)
	})

	// Use a top-level mux to separate health probes from middleware stack
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /healthz", health)
	topMux.Handle("GET /readyz", readiness(cfg.Pool))
	topMux.Handle("/", final)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
