package chat

import (
	"context"

	"github.com/futig/docqa-backend/internal/entity"
)

type LLMConnector interface {
	GenerateStream(ctx context.Context, prompt string) (<-chan entity.Fragment, error)
	Generate(ctx context.Context, prompt string) (string, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, query, documentID string, topK int) ([]entity.SearchResult, error)
}
