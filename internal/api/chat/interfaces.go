package chat

import (
	"context"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/usecase/chat"
)

type ChatUsecase interface {
	StreamAnswer(ctx context.Context, req *entity.ChatRequest, emit chat.Emitter) error
}
