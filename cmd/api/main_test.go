package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ridecheck/internal/config"
	"ridecheck/internal/core"
	"ridecheck/internal/metrics"
)

// setTestEnv sets the minimum environment for a stub-provider config.
func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "local")
	t.Setenv("HOME_ADDRESS", "Anshan City Tiedong District")
	t.Setenv("WORK_ADDRESS", "Shenyang City Heping District")
	t.Setenv("RIDE_MIN_TEMP", "5")
	t.Setenv("RIDE_MAX_TEMP", "30")
	t.Setenv("RIDE_MAX_WIND_SPEED", "8")
	t.Setenv("RIDE_ALLOW_PRECIPITATION", "false")
	t.Setenv("WEATHER_PROVIDER", "stub")
}

func buildTestServer(t *testing.T) *core.Server {
	t.Helper()
	setTestEnv(t)

	cfg, err := config.LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	srv, err := buildServer(cfg, logger, metrics.NoopRecorder{})
	if err != nil {
		t.Fatalf("buildServer: %v", err)
	}
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	srv := buildTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", body["status"])
	}
}

func TestRecommendationEndpointUsesConfiguredProfile(t *testing.T) {
	srv := buildTestServer(t)

	body := `{"home_address":"Anshan City Tiedong District","work_address":"Shenyang City Heping District"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/recommendations", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("expected X-Request-Id header from the chassis")
	}
	if !strings.Contains(rec.Body.String(), `"topology":"cross_city"`) {
		t.Errorf("expected cross_city topology in %s", rec.Body.String())
	}
}

func TestTopologyEndpoint(t *testing.T) {
	srv := buildTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/topology?home=Anshan+City&work=Anshan+City", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"topology":"same_city_cross_zone"`) {
		t.Errorf("zone-less identifiers in one city are cross-zone: %s", rec.Body.String())
	}
}

func TestBuildServer_UnknownProviderFails(t *testing.T) {
	setTestEnv(t)
	cfg, err := config.LoadConfig(nil)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Weather.Provider = "darksky"

	if _, err := buildServer(cfg, slog.New(slog.NewJSONHandler(io.Discard, nil)), nil); err == nil {
		t.Error("expected error for unknown provider")
	}
}
