// Package advice asks a language model for clothing advice matching a day's weather.
package advice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	llmsdk "github.com/hoangvvo/llm-sdk/sdk-go"
	"github.com/hoangvvo/llm-sdk/sdk-go/openai"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-saas/internal/models"
	"github.com/kjstillabower/weather-saas/internal/observability"
)

const (
	DefaultModel     = "gpt-3.5-turbo"
	DefaultMaxTokens = 1000

	// FailurePrefix starts the text returned in place of advice when the model call fails.
	FailurePrefix = "Не вдалося отримати рекомендації від ШІ: "

	systemPrompt = "Ти експерт з погоди та рекомендацій, щодо одягу який краще одягати."

	promptTemplate = `Поточна погода:
- Температура: %s°C
- Вітер: %s км/год
- Тиск: %s мбар
- Вологість: %s%%

На основі цих даних:
1. Який одяг найкраще носити?`
)

var errEmptyCompletion = errors.New("empty completion")

// Model is the part of llmsdk.LanguageModel the generator needs.
type Model interface {
	Generate(ctx context.Context, input *llmsdk.LanguageModelInput) (*llmsdk.ModelResponse, error)
}

type Generator struct {
	model     Model
	maxTokens int64
	timeout   time.Duration
}

// NewGenerator wraps model. maxTokens <= 0 uses DefaultMaxTokens; timeout 0 means no extra deadline.
func NewGenerator(model Model, maxTokens int, timeout time.Duration) *Generator {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Generator{model: model, maxTokens: int64(maxTokens), timeout: timeout}
}

// NewOpenAIGenerator builds a Generator backed by the OpenAI chat completions API.
// An empty baseURL uses the SDK default; an empty modelID uses DefaultModel.
func NewOpenAIGenerator(apiKey, baseURL, modelID string, maxTokens int, timeout time.Duration) *Generator {
	if modelID == "" {
		modelID = DefaultModel
	}
	model := openai.NewOpenAIChatModel(modelID, openai.OpenAIChatModelOptions{
		BaseURL: baseURL,
		APIKey:  apiKey,
	})
	return NewGenerator(model, maxTokens, timeout)
}

// Suggest returns the model's advice for record. It never fails: on any error the
// returned text is FailurePrefix followed by the cause.
func (g *Generator) Suggest(ctx context.Context, record models.WeatherRecord) string {
	logger := observability.LoggerFromContext(ctx)
	start := time.Now()

	text, err := g.complete(ctx, BuildPrompt(record))
	duration := time.Since(start)
	if err != nil {
		observability.LLMCallsTotal.WithLabelValues("error").Inc()
		observability.LLMDuration.WithLabelValues("error").Observe(duration.Seconds())
		logger.Warn("advice generation failed", zap.Error(err), zap.Duration("duration", duration))
		return FailurePrefix + err.Error()
	}

	observability.LLMCallsTotal.WithLabelValues("success").Inc()
	observability.LLMDuration.WithLabelValues("success").Observe(duration.Seconds())
	logger.Debug("advice generated", zap.Int("length", len(text)), zap.Duration("duration", duration))
	return text
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	if g.model == nil {
		return "", errors.New("language model not configured")
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	system := systemPrompt
	maxTokens := uint32(g.maxTokens)
	resp, err := g.model.Generate(ctx, &llmsdk.LanguageModelInput{
		SystemPrompt: &system,
		Messages: []llmsdk.Message{
			llmsdk.NewUserMessage(llmsdk.Part{TextPart: &llmsdk.TextPart{Text: prompt}}),
		},
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", errEmptyCompletion
	}

	var sb strings.Builder
	for _, part := range resp.Content {
		if part.TextPart != nil {
			sb.WriteString(part.TextPart.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errEmptyCompletion
	}
	return sb.String(), nil
}

// BuildPrompt renders the user message for record. Missing readings appear as N/A.
func BuildPrompt(record models.WeatherRecord) string {
	return fmt.Sprintf(promptTemplate,
		record.TemperatureC.String(),
		record.WindKPH.String(),
		record.PressureMB.String(),
		record.Humidity.String(),
	)
}
