//go:build integration
// +build integration

package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/kjstillabower/weather-saas/internal/advice"
	"github.com/kjstillabower/weather-saas/internal/models"
	"github.com/kjstillabower/weather-saas/internal/observability"
	testhelpers "github.com/kjstillabower/weather-saas/internal/testhelpers"
	"github.com/kjstillabower/weather-saas/internal/traffic"
)

const integrationToken = "integration-token"

// setupIntegrationRouter builds the full middleware and handler stack against the live providers.
func setupIntegrationRouter(t *testing.T) (*mux.Router, testhelpers.IntegrationTestConfig) {
	t.Helper()
	cfg := testhelpers.GetIntegrationConfig(t)
	logger, err := observability.NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	t.Cleanup(func() { _ = logger.Sync() })

	handler := NewHandler(testhelpers.SetupIntegrationService(t, cfg), integrationToken, traffic.New(),
		&HealthConfig{DegradedWindow: time.Minute, DegradedErrorPct: 50}, logger)

	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/weather", handler.PostWeather).Methods("POST")
	router.HandleFunc("/weather_with_ai", handler.PostWeatherWithAI).Methods("POST")
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler()).Methods("GET")
	return router, cfg
}

func integrationPost(router *mux.Router, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIntegration_PostWeather_LiveProvider(t *testing.T) {
	router, _ := setupIntegrationRouter(t)
	date := time.Now().UTC().Format("2006-01-02")

	w := integrationPost(router, "/weather", queryBody(integrationToken, "Kyiv,Ukraine", date, "integration"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got models.ResponseEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Weather.TemperatureC.Valid {
		t.Errorf("temp_c = N/A, want a number from the live provider")
	}
}

func TestIntegration_PostWeather_UnknownLocation(t *testing.T) {
	router, _ := setupIntegrationRouter(t)

	w := integrationPost(router, "/weather", queryBody(integrationToken, "zzzz-not-a-place-zzzz", "2026-01-01", "integration"))
	if w.Code < 400 || w.Code >= 500 {
		t.Errorf("status = %d, want provider 4xx passed through; body = %s", w.Code, w.Body.String())
	}
}

func TestIntegration_PostWeatherWithAI_LiveModel(t *testing.T) {
	router, cfg := setupIntegrationRouter(t)
	testhelpers.RequireAdvice(t, cfg)
	date := time.Now().UTC().Format("2006-01-02")

	w := integrationPost(router, "/weather_with_ai", queryBody(integrationToken, "Kyiv,Ukraine", date, "integration"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got models.ResponseEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.AISuggestion == nil || *got.AISuggestion == "" {
		t.Fatal("ai_suggestion missing")
	}
	if strings.HasPrefix(*got.AISuggestion, advice.FailurePrefix) {
		t.Errorf("ai_suggestion is the failure text: %s", *got.AISuggestion)
	}
}

func TestIntegration_GetMetrics_Format(t *testing.T) {
	router, _ := setupIntegrationRouter(t)
	integrationPost(router, "/weather", queryBody(integrationToken, "Kyiv,Ukraine", time.Now().UTC().Format("2006-01-02"), "integration"))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	for _, name := range []string{"httpRequestsTotal", "weatherApiCallsTotal"} {
		if !strings.Contains(w.Body.String(), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
