// Package api exposes the retrieval and chat surface as a JSON HTTP API.
//
// Routes are registered on a net/http ServeMux with method patterns; health
// probes bypass the middleware stack so orchestrators are never rate limited
// or logged at request level.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger        *slog.Logger
	Searcher      Searcher          // Required
	Advisor       Advisor           // Optional: nil disables /api/v1/ask
	Conversations ConversationStore // Optional: nil disables conversation routes
	Corpus        CorpusCounter     // Optional: nil disables /api/v1/stats
	Pool          *pgxpool.Pool     // Optional: nil disables pool stats in /ready
	CORSOrigins   []string
	TrustProxy    bool    // trust X-Real-IP/X-Forwarded-For (behind reverse proxy)
	RateLimit     float64 // tokens/second per IP (0 = default 5)
	RateBurst     int     // bucket size per IP (0 = default 10)
	IsDev         bool    // disables HSTS
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates an API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Searcher == nil {
		return nil, errors.New("searcher is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	sh := &searchHandler{searcher: cfg.Searcher, logger: logger}
	mux.HandleFunc("GET /api/v1/search", sh.search)

	if cfg.Advisor != nil || cfg.Conversations != nil {
		ch := &chatHandler{
			advisor:       cfg.Advisor,
			conversations: cfg.Conversations,
			logger:        logger,
		}
		if cfg.Advisor != nil && cfg.Conversations != nil {
			mux.HandleFunc("POST /api/v1/ask", ch.ask)
		}
		if cfg.Conversations != nil {
			mux.HandleFunc("POST /api/v1/conversations", ch.createConversation)
			mux.HandleFunc("GET /api/v1/conversations", ch.listConversations)
			mux.HandleFunc("GET /api/v1/conversations/{id}/messages", ch.getMessages)
		}
	}

	if cfg.Corpus != nil {
		st := &statsHandler{corpus: cfg.Corpus, logger: logger}
		mux.HandleFunc("GET /api/v1/stats", st.stats)
	}

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 5
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 10
	}
	rl := newRateLimiter(limit, burst)

	// Middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Identity → Routes
	// RequestID precedes Logging so request_id is available in log attributes;
	// CORS precedes RateLimit so preflight OPTIONS gets proper CORS headers.
	var handler http.Handler = mux
	handler = identityMiddleware()(handler)
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	isDev := cfg.IsDev
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w, isDev)
		handler.ServeHTTP(w, r)
	})

	// Health probes live outside the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool))
	topMux.Handle("/", final)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
