package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-saas/internal/client"
	"github.com/kjstillabower/weather-saas/internal/models"
	"github.com/kjstillabower/weather-saas/internal/observability"
)

// TimestampLayout is UTC ISO-8601 with microseconds and a literal Z.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Advisor produces clothing advice for a weather record. Failures are reported in the returned text.
type Advisor interface {
	Suggest(ctx context.Context, record models.WeatherRecord) string
}

// WeatherService runs one validated query through the weather fetch, the optional
// advice step and response assembly. It holds no per-request state.
type WeatherService struct {
	client  client.WeatherClient
	advisor Advisor
	now     func() time.Time
}

// NewWeatherService creates a WeatherService. advisor may be nil when only GetWeather is served.
func NewWeatherService(client client.WeatherClient, advisor Advisor) *WeatherService {
	return &WeatherService{
		client:  client,
		advisor: advisor,
		now:     time.Now,
	}
}

// WithClock replaces the clock used for response timestamps. For tests.
func (s *WeatherService) WithClock(now func() time.Time) *WeatherService {
	s.now = now
	return s
}

// GetWeather fetches the day's weather and assembles the envelope without advice.
func (s *WeatherService) GetWeather(ctx context.Context, q models.WeatherQuery) (models.ResponseEnvelope, error) {
	observability.WeatherQueriesTotal.WithLabelValues("weather").Inc()
	record, err := s.fetch(ctx, q)
	if err != nil {
		return models.ResponseEnvelope{}, err
	}
	return s.assemble(q, record, nil), nil
}

// GetWeatherWithAdvice is GetWeather plus ai_suggestion. Only the weather fetch can fail it.
func (s *WeatherService) GetWeatherWithAdvice(ctx context.Context, q models.WeatherQuery) (models.ResponseEnvelope, error) {
	observability.WeatherQueriesTotal.WithLabelValues("weather_with_ai").Inc()
	record, err := s.fetch(ctx, q)
	if err != nil {
		return models.ResponseEnvelope{}, err
	}

	var suggestion string
	if s.advisor != nil {
		suggestion = s.advisor.Suggest(ctx, record)
	}
	return s.assemble(q, record, &suggestion), nil
}

func (s *WeatherService) fetch(ctx context.Context, q models.WeatherQuery) (models.WeatherRecord, error) {
	logger := observability.LoggerFromContext(ctx)
	start := time.Now()

	record, err := s.client.GetDailyWeather(ctx, q.Location, q.Date)
	if err != nil {
		category := client.CategorizeError(err)
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(category)).Inc()
		logger.Warn("weather fetch failed",
			zap.String("location", q.Location),
			zap.String("date", q.Date),
			zap.String("category", string(category)),
			zap.Error(err))
		return models.WeatherRecord{}, fmt.Errorf("fetch weather for %s on %s: %w", q.Location, q.Date, err)
	}

	logger.Debug("weather fetched",
		zap.String("location", q.Location),
		zap.String("date", q.Date),
		zap.Duration("duration", time.Since(start)))
	return record, nil
}

// assemble captures the timestamp at construction time, after the upstream calls.
func (s *WeatherService) assemble(q models.WeatherQuery, record models.WeatherRecord, suggestion *string) models.ResponseEnvelope {
	return models.ResponseEnvelope{
		RequesterName: q.RequesterName,
		Timestamp:     s.now().UTC().Format(TimestampLayout),
		Location:      q.Location,
		Date:          q.Date,
		Weather:       record,
		AISuggestion:  suggestion,
	}
}
