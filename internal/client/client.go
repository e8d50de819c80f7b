package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kjstillabower/weather-saas/internal/apperror"
	"github.com/kjstillabower/weather-saas/internal/models"
	"github.com/kjstillabower/weather-saas/internal/observability"
)

// DefaultAPIURL is the Visual Crossing timeline endpoint; location and date are appended as path segments.
const DefaultAPIURL = "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline"

type WeatherClient interface {
	GetDailyWeather(ctx context.Context, location, date string) (models.WeatherRecord, error)
}

var (
	ErrInvalidAPIKey  = errors.New("invalid API key")
	ErrUpstreamStatus = errors.New("upstream returned non-success status")
	ErrTransport      = errors.New("weather transport failure")
)

type VisualCrossingClient struct {
	apiKey string
	apiURL string
	client *http.Client
}

// NewVisualCrossingClient returns a client for the timeline API. A zero timeout leaves
// the request bounded only by the caller's context.
func NewVisualCrossingClient(apiKey, apiURL string, timeout time.Duration) (*VisualCrossingClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if _, err := url.Parse(apiURL); err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	return &VisualCrossingClient{
		apiKey: apiKey,
		apiURL: strings.TrimRight(apiURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type timelineResponse struct {
	Days []timelineDay `json:"days"`
}

type timelineDay struct {
	Temp      models.Reading `json:"temp"`
	WindSpeed models.Reading `json:"windspeed"`
	Pressure  models.Reading `json:"pressure"`
	Humidity  models.Reading `json:"humidity"`
}

// GetDailyWeather fetches one day and projects it into a WeatherRecord.
// A non-2xx reply becomes an apperror carrying the provider's status and raw body;
// every other failure becomes the generic transport apperror.
func (c *VisualCrossingClient) GetDailyWeather(ctx context.Context, location, date string) (models.WeatherRecord, error) {
	start := time.Now()

	req, err := c.buildRequest(ctx, location, date)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return models.WeatherRecord{}, transportError(fmt.Errorf("build request: %w", err))
	}

	if corrID := observability.CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return models.WeatherRecord{}, transportError(fmt.Errorf("request timeout: %w", err))
		}
		return models.WeatherRecord{}, transportError(fmt.Errorf("http request failed: %w", err))
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(duration)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.WeatherRecord{}, transportError(fmt.Errorf("read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		appErr := apperror.Upstream(resp.StatusCode, string(body))
		appErr.Err = ErrUpstreamStatus
		return models.WeatherRecord{}, appErr
	}

	var apiResp timelineResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return models.WeatherRecord{}, transportError(fmt.Errorf("parse response: %w", err))
	}

	return mapResponse(apiResp), nil
}

func (c *VisualCrossingClient) buildRequest(ctx context.Context, location, date string) (*http.Request, error) {
	baseURL, err := url.Parse(c.apiURL + "/" + url.PathEscape(location) + "/" + url.PathEscape(date))
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := url.Values{}
	params.Set("unitGroup", "metric")
	params.Set("include", "days")
	params.Set("key", c.apiKey)
	params.Set("contentType", "json")
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

// mapResponse projects the first day. A missing or empty days array yields an all-N/A record.
func mapResponse(apiResp timelineResponse) models.WeatherRecord {
	if len(apiResp.Days) == 0 {
		return models.WeatherRecord{}
	}
	day := apiResp.Days[0]
	return models.WeatherRecord{
		TemperatureC: day.Temp,
		WindKPH:      day.WindSpeed,
		PressureMB:   day.Pressure,
		Humidity:     day.Humidity,
	}
}

func transportError(err error) *apperror.Error {
	return apperror.Transport(fmt.Errorf("%w: %w", ErrTransport, err))
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
