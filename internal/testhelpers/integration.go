//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"testing"
	"time"

	"github.com/kjstillabower/weather-saas/internal/advice"
	"github.com/kjstillabower/weather-saas/internal/client"
	"github.com/kjstillabower/weather-saas/internal/service"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	WeatherAPIKey string
	WeatherAPIURL string
	OpenAIAPIKey  string // optional; advice tests skip without it
	LLMModel      string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips test if WEATHER_API_KEY is not set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	apiKey := os.Getenv("WEATHER_API_KEY")
	if apiKey == "" {
		t.Skip("WEATHER_API_KEY not set, skipping integration test")
	}

	apiURL := os.Getenv("WEATHER_API_URL")
	if apiURL == "" {
		apiURL = client.DefaultAPIURL
	}

	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = advice.DefaultModel
	}

	return IntegrationTestConfig{
		WeatherAPIKey: apiKey,
		WeatherAPIURL: apiURL,
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		LLMModel:      model,
	}
}

// SetupIntegrationClient creates a Visual Crossing client for integration tests.
func SetupIntegrationClient(t *testing.T, cfg IntegrationTestConfig) *client.VisualCrossingClient {
	t.Helper()
	c, err := client.NewVisualCrossingClient(cfg.WeatherAPIKey, cfg.WeatherAPIURL, 10*time.Second)
	if err != nil {
		t.Fatalf("NewVisualCrossingClient() error = %v", err)
	}
	return c
}

// SetupIntegrationService wires the real weather client and, when OPENAI_API_KEY is set,
// the real advice model. Without the key the service is built with no advisor.
func SetupIntegrationService(t *testing.T, cfg IntegrationTestConfig) *service.WeatherService {
	t.Helper()
	var advisor service.Advisor
	if cfg.OpenAIAPIKey != "" {
		advisor = advice.NewOpenAIGenerator(cfg.OpenAIAPIKey, "", cfg.LLMModel, 200, 60*time.Second)
	}
	return service.NewWeatherService(SetupIntegrationClient(t, cfg), advisor)
}

// RequireAdvice skips the test when no language model key is configured.
func RequireAdvice(t *testing.T, cfg IntegrationTestConfig) {
	t.Helper()
	if cfg.OpenAIAPIKey == "" {
		t.Skip("OPENAI_API_KEY not set, skipping advice integration test")
	}
}
