package search

import (
	"context"

	"github.com/futig/docqa-backend/internal/entity"
)

type SearchUsecase interface {
	SemanticSearch(ctx context.Context, req *entity.SemanticSearchRequest) (*entity.SemanticSearchResponse, error)
}
