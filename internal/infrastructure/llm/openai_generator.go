package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"astra/internal/domain/entity"
	"astra/internal/domain/repository"
	"astra/internal/infrastructure/metrics"
	"astra/internal/infrastructure/telemetry"
)

const defaultModel = openai.ChatModelGPT4oMini

type OpenAIConfig struct {
	APIKey string
	// BaseURL points at any OpenAI compatible endpoint; empty uses the SDK default.
	BaseURL string
	// Timeout bounds a single call. Zero means no limit beyond the caller's context.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// OpenAIGenerator calls the chat completions API once per request.
type OpenAIGenerator struct {
	client  openai.Client
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

var _ repository.LLMGenerator = (*OpenAIGenerator)(nil)

func NewOpenAIGenerator(cfg OpenAIConfig, m *metrics.Metrics, logger *slog.Logger) *OpenAIGenerator {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenAIGenerator{
		client:  openai.NewClient(opts...),
		timeout: cfg.Timeout,
		metrics: m,
		logger:  logger.With("component", "llm"),
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req entity.CompletionRequest) (completion entity.Completion, err error) {
	model := req.Model
	if model == "" {
		model = string(defaultModel)
	}

	ctx, span := telemetry.Tracer().Start(ctx, "llm.Generate", trace.WithAttributes(
		attribute.String("llm.model", model),
		attribute.Float64("llm.temperature", req.Temperature),
		attribute.Int64("llm.max_tokens", req.MaxTokens),
	))
	defer func() { telemetry.End(span, err) }()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(req.MaxTokens)
	}

	g.metrics.IncLLMRequest(model)
	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, params)
	g.metrics.ObserveLLMDuration(model, time.Since(start))
	if err != nil {
		g.metrics.IncError("llm", errorType(err))
		return entity.Completion{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		g.metrics.IncError("llm", "no_choices")
		return entity.Completion{}, errors.New("openai chat completion: no choices returned")
	}

	g.metrics.AddLLMTokens(model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	span.SetAttributes(
		attribute.Int64("llm.prompt_tokens", resp.Usage.PromptTokens),
		attribute.Int64("llm.completion_tokens", resp.Usage.CompletionTokens),
	)
	g.logger.Debug("llm call finished",
		"model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"duration", time.Since(start),
	)

	return entity.Completion{
		Text:             resp.Choices[0].Message.Content,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func errorType(err error) string {
	var apiErr *openai.Error
	switch {
	case errors.As(err, &apiErr):
		return fmt.Sprintf("api_error_%d", apiErr.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "http_do"
	}
}
