package repository

import (
	"context"

	"astra/internal/domain/entity"
)

// LLMGenerator performs one blocking completion call against the text
// generation provider. Implementations must not retry.
type LLMGenerator interface {
	Generate(ctx context.Context, req entity.CompletionRequest) (entity.Completion, error)
}
