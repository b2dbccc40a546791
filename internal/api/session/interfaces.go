package session

import (
	"context"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/usecase/session"
)

type SessionUsecase interface {
	ListSessions(ctx context.Context, documentID string) ([]*entity.ChatSession, error)
	GetSessionWithMessages(ctx context.Context, sessionID string) (*entity.SessionWithMessages, error)
	UpdateSessionTitle(ctx context.Context, sessionID, title string) (*entity.ChatSession, error)
	DeleteSession(ctx context.Context, sessionID string) error
	ExportSession(ctx context.Context, sessionID string, format entity.ResultFormat) (*session.ExportResult, error)
}
