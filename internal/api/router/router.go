package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/marketier-assistant/internal/conversation"
	httpmiddleware "github.com/wolfman30/marketier-assistant/internal/http/middleware"
	"github.com/wolfman30/marketier-assistant/internal/webchat"
	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger        *logging.Logger
	ChatHandler   *conversation.Handler
	LegacyChat    *conversation.LegacyChatHandler
	WebChat       *webchat.Handler
	SessionTokens *httpmiddleware.SessionTokens

	// Reported by /health.
	CompletionProvider string
	BookingProvider    string

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
	Now                func() time.Time
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("X-Content-Type-Options", "nosniff"))
	r.Use(middleware.SetHeader("X-Frame-Options", "DENY"))
	r.Use(middleware.SetHeader("Referrer-Policy", "no-referrer"))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Endpoint not found"})
	})

	health := healthHandler(cfg)
	r.Get("/health", health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Everything a browser can hit is rate limited per IP.
	r.Group(func(api chi.Router) {
		if cfg.RateLimitRPS > 0 {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
		}
		api.Get("/api/health", health)
		if cfg.LegacyChat != nil {
			api.With(middleware.AllowContentType("application/json")).Post("/api/chat", cfg.LegacyChat.Chat)
		}
		if cfg.ChatHandler != nil {
			api.Mount("/chat/sessions", cfg.ChatHandler.Routes(cfg.SessionTokens.Require))
		}
		if cfg.WebChat != nil {
			api.With(cfg.SessionTokens.Require).Get("/chat/ws/{sessionID}", cfg.WebChat.HandleWebSocket)
		}
	})

	return r
}

func healthHandler(cfg *Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := cfg.CompletionProvider
		if provider == "" {
			provider = "none"
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":              "healthy",
			"timestamp":           cfg.Now().UTC().Format(time.RFC3339),
			"completion":          provider != "none",
			"completion_provider": provider,
			"booking_provider":    cfg.BookingProvider,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
