package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-saas/internal/apperror"
	"github.com/kjstillabower/weather-saas/internal/client"
	"github.com/kjstillabower/weather-saas/internal/lifecycle"
	"github.com/kjstillabower/weather-saas/internal/models"
	"github.com/kjstillabower/weather-saas/internal/observability"
	"github.com/kjstillabower/weather-saas/internal/service"
	"github.com/kjstillabower/weather-saas/internal/traffic"
	"github.com/kjstillabower/weather-saas/internal/validation"
)

// HomeBanner is the static HTML served on GET /.
const HomeBanner = "<p><h2>KMA L2: Python Weather SaaS.</h2></p>"

// maxBodyBytes caps the JSON request body.
const maxBodyBytes = 1 << 20

// HealthConfig holds thresholds for the health handler.
type HealthConfig struct {
	DegradedWindow   time.Duration
	DegradedErrorPct int
	Version          string
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	weatherService   *service.WeatherService
	apiToken         string
	tracker          *traffic.Tracker
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler. apiToken is the shared secret every weather request must carry.
// tracker may be nil, in which case /health never reports degraded.
func NewHandler(
	weatherService *service.WeatherService,
	apiToken string,
	tracker *traffic.Tracker,
	healthConfig *HealthConfig,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		weatherService: weatherService,
		apiToken:       apiToken,
		tracker:        tracker,
		healthConfig:   healthConfig,
		logger:         logger,
	}
}

// Home handles GET /.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, HomeBanner)
}

// PostWeather handles POST /weather.
func (h *Handler) PostWeather(w http.ResponseWriter, r *http.Request) {
	h.serveQuery(w, r, h.weatherService.GetWeather)
}

// PostWeatherWithAI handles POST /weather_with_ai.
func (h *Handler) PostWeatherWithAI(w http.ResponseWriter, r *http.Request) {
	h.serveQuery(w, r, h.weatherService.GetWeatherWithAdvice)
}

type queryFunc func(ctx context.Context, q models.WeatherQuery) (models.ResponseEnvelope, error)

// serveQuery validates the body and runs it through fn. Validation failures never reach upstream.
func (h *Handler) serveQuery(w http.ResponseWriter, r *http.Request, fn queryFunc) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeAppError(w, r, apperror.Validation(apperror.MsgInvalidBody))
		return
	}

	q, err := validation.DecodeQuery(body)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := validation.ValidateQuery(q, h.apiToken); err != nil {
		writeAppError(w, r, err)
		return
	}

	resp, err := fn(r.Context(), q)
	h.recordOutcome(err)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	observability.LoggerFromContext(r.Context()).Debug("weather request served",
		zap.String("requester_name", q.RequesterName),
		zap.String("location", q.Location),
		zap.String("date", q.Date),
		zap.Bool("ai_suggestion", resp.AISuggestion != nil))
	writeJSON(w, http.StatusOK, resp)
}

// recordOutcome feeds the degraded check. Only failures that point at the weather
// upstream itself count: a bad location (4xx) or a caller hanging up does not.
func (h *Handler) recordOutcome(err error) {
	if h.tracker == nil {
		return
	}
	switch {
	case err == nil:
		h.tracker.RecordSuccess()
	case errors.Is(err, context.Canceled):
	case client.CategorizeError(err) == client.ErrorCategoryUpstream4xx:
		h.tracker.RecordSuccess()
	default:
		h.tracker.RecordError()
	}
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{"weatherApi": "healthy"}
	if result.reason == "error_rate_breach" {
		checks["weatherApi"] = "unhealthy"
	}
	version := "dev"
	if h.healthConfig != nil && h.healthConfig.Version != "" {
		version = h.healthConfig.Version
	}
	writeJSON(w, result.statusCode, map[string]interface{}{
		"status":    result.status,
		"service":   observability.ServiceName,
		"version":   version,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    lifecycle.Uptime().Round(time.Second).String(),
	})
}

// computeHealthStatus evaluates, in order: shutting-down > degraded > healthy.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.healthConfig != nil && h.tracker != nil && h.healthConfig.DegradedWindow > 0 && h.healthConfig.DegradedErrorPct > 0 {
		errCount, total := h.tracker.ErrorRate(h.healthConfig.DegradedWindow)
		if total > 0 {
			pct := float64(errCount) * 100 / float64(total)
			if pct >= float64(h.healthConfig.DegradedErrorPct) {
				return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
			}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeAppError is the single error-to-response mapping: {"message": ...} with the
// error's status. Anything that is not an *apperror.Error becomes the generic 500.
// Causes are logged, never rendered.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.From(err)
	logger := observability.LoggerFromContext(r.Context())
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("kind", string(appErr.Kind)), zap.Error(err))
	} else {
		logger.Debug("request rejected",
			zap.String("kind", string(appErr.Kind)),
			zap.Int("status", appErr.StatusCode),
			zap.Error(err))
	}
	writeJSON(w, appErr.StatusCode, map[string]string{"message": appErr.Message})
}
