package bot

import (
	"context"

	"github.com/futig/docqa-backend/internal/entity"
)

type ChatUsecase interface {
	Ask(ctx context.Context, req *entity.ChatRequest) (*entity.ChatAnswer, error)
}

type DocumentUsecase interface {
	ListDocuments(ctx context.Context) ([]*entity.Document, error)
	GetDocument(ctx context.Context, documentID string) (*entity.Document, error)
}
