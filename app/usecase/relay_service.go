package usecase

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"astra/internal/domain/entity"
	"astra/internal/domain/repository"
	"astra/internal/infrastructure/metrics"
	"astra/internal/infrastructure/telemetry"
)

type RelayUsecase interface {
	Generate(ctx context.Context, req entity.GenerationRequest) (entity.GenerationResult, error)
}

// GenerationParams are the sampling settings sent with every provider call.
type GenerationParams struct {
	Model       string
	Temperature float64
	MaxTokens   int64
}

type RelayService struct {
	llm     repository.LLMGenerator
	params  GenerationParams
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

var _ RelayUsecase = (*RelayService)(nil)

func NewRelayService(
	llm repository.LLMGenerator,
	params GenerationParams,
	m *metrics.Metrics,
	logger *slog.Logger,
) *RelayService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RelayService{
		llm:     llm,
		params:  params,
		metrics: m,
		logger:  logger.With("component", "relay"),
		tracer:  telemetry.Tracer(),
	}
}

// Generate runs one request through dispatch, the provider call and shaping.
// Unknown modes short-circuit to a fixed successful result without calling
// the provider. A provider failure is returned unchanged so its message can
// be reported to the caller as is.
func (s *RelayService) Generate(ctx context.Context, req entity.GenerationRequest) (result entity.GenerationResult, err error) {
	ctx, span := s.tracer.Start(ctx, "relay.Generate", trace.WithAttributes(
		attribute.String("astra.mode", string(req.Mode)),
	))
	defer func() { telemetry.End(span, err) }()

	prompt, ok := entity.BuildPrompt(req)
	if !ok {
		s.metrics.IncGeneration("unknown", "unknown_mode")
		s.logger.Warn("unknown mode", "mode", req.Mode)
		return entity.UnknownModeResult(req.Mode), nil
	}

	maxTokens := s.params.MaxTokens
	if prompt.MaxTokens > maxTokens {
		maxTokens = prompt.MaxTokens
	}

	start := time.Now()
	completion, err := s.llm.Generate(ctx, entity.CompletionRequest{
		System:      prompt.System,
		User:        prompt.Text,
		Model:       s.params.Model,
		Temperature: s.params.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		s.metrics.IncGeneration(req.Mode.String(), "error")
		s.logger.Error("generation failed", "mode", req.Mode, "niche", req.NicheOrIdea(), "err", err)
		return entity.GenerationResult{}, err
	}

	shaped := entity.Shape(completion.Text)
	s.metrics.IncShape(shaped.Kind().String())
	s.metrics.IncGeneration(req.Mode.String(), "ok")
	span.SetAttributes(attribute.String("astra.shape", shaped.Kind().String()))

	s.logger.Info("generation done",
		"mode", req.Mode,
		"niche", req.NicheOrIdea(),
		"shape", shaped.Kind().String(),
		"duration", time.Since(start),
	)
	return entity.ResultFromShape(shaped), nil
}
