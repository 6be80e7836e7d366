package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appconfig "github.com/wolfman30/marketier-assistant/internal/config"
	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

func TestSetupMetricsExposesMetrics(t *testing.T) {
	handler, metrics := setupMetrics()
	if handler == nil || metrics == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	metrics.ObserveTurn("fallback")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "marketier_assistant_turns_total") {
		t.Fatalf("expected turn counter to be exported")
	}
}

func testConfig() *appconfig.Config {
	return &appconfig.Config{
		CompletionProvider: "none",
		SessionStore:       "memory",
		SessionTTL:         time.Hour,
		SessionTokenSecret: "test-secret",
		BusinessTimezone:   "America/New_York",
		ProviderTimeout:    time.Second,
		CORSAllowedOrigins: []string{"http://localhost:5173"},
	}
}

func TestBuildAPIServesHealthAndSessions(t *testing.T) {
	handler, cleanup, err := buildAPI(context.Background(), testConfig(), logging.Discard())
	if err != nil {
		t.Fatalf("build api: %v", err)
	}
	defer cleanup()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from /health, got %d", rr.Code)
	}
	var health map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health["completion"] != false || health["booking_provider"] != "demo" {
		t.Fatalf("unexpected health payload %v", health)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/chat/sessions", nil))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating a session, got %d", rr.Code)
	}
	var created struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if created.Session.ID == "" || created.Token == "" {
		t.Fatalf("expected session id and token, got %+v", created)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/chat/sessions/"+created.Session.ID, nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}
}

func TestBuildAPIRejectsBadTimezone(t *testing.T) {
	cfg := testConfig()
	cfg.BusinessTimezone = "Nowhere/Special"
	if _, _, err := buildAPI(context.Background(), cfg, logging.Discard()); err == nil {
		t.Fatalf("expected error for invalid timezone")
	}
}
