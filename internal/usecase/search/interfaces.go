package search

import (
	"context"

	"github.com/futig/docqa-backend/internal/entity"
)

type EmbeddingConnector interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	ModelInfo() entity.EmbeddingModelInfo
}
