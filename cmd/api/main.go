package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/marketier-assistant/internal/api/router"
	"github.com/wolfman30/marketier-assistant/internal/app/bootstrap"
	appconfig "github.com/wolfman30/marketier-assistant/internal/config"
	"github.com/wolfman30/marketier-assistant/internal/conversation"
	httpmiddleware "github.com/wolfman30/marketier-assistant/internal/http/middleware"
	"github.com/wolfman30/marketier-assistant/internal/observability/metrics"
	"github.com/wolfman30/marketier-assistant/internal/webchat"
	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting marketier assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api, cleanup, err := buildAPI(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build API", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Create HTTP server. WriteTimeout is left at zero so websocket
	// connections are not cut off mid-conversation.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildAPI wires the conversation stack and returns the HTTP handler plus a
// cleanup func for the connections it opened.
func buildAPI(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (http.Handler, func(), error) {
	metricsHandler, convMetrics := setupMetrics()

	store, redisClient := bootstrap.BuildSessionStore(ctx, cfg, logger)
	pool := bootstrap.ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
	cleanup := func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		if pool != nil {
			pool.Close()
		}
	}

	conv, err := bootstrap.BuildConversation(ctx, cfg, bootstrap.ConversationDeps{
		Store:      store,
		TurnLocker: bootstrap.BuildTurnLocker(cfg, redisClient),
		Metrics:    convMetrics,
		Observers:  bootstrap.BuildBookingObservers(ctx, cfg, pool, logger),
		Logger:     logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	tokens := httpmiddleware.NewSessionTokens(cfg.SessionTokenSecret, cfg.SessionTTL)
	var issuer conversation.TokenIssuer
	if tokens != nil {
		issuer = tokens
	} else {
		logger.Warn("SESSION_TOKEN_SECRET not set; session routes are unauthenticated")
	}

	handler := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        conversation.NewHandler(conv.Service, issuer, logger),
		LegacyChat:         conversation.NewLegacyChatHandler(conv.Controller, logger),
		WebChat:            webchat.NewHandler(conv.Service, logger),
		SessionTokens:      tokens,
		CompletionProvider: conv.CompletionProvider,
		BookingProvider:    conv.Controller.BookingProvider(),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})
	return handler, cleanup, nil
}

func setupMetrics() (http.Handler, *metrics.ConversationMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewConversationMetrics(reg)
}
