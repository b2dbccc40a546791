package session

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/formatter"
	"github.com/futig/docqa-backend/internal/repository"
)

// SessionUsecase implements chat session management and transcript export
type SessionUsecase struct {
	sessionRepo      repository.ChatSessionRepository
	messageRepo      repository.ChatMessageRepository
	formatterFactory *formatter.Factory
	logger           *zap.Logger
}

// NewUsecase creates a new session use case
func NewUsecase(
	sessionRepo repository.ChatSessionRepository,
	messageRepo repository.ChatMessageRepository,
	formatterFactory *formatter.Factory,
	logger *zap.Logger,
) *SessionUsecase {
	return &SessionUsecase{
		sessionRepo:      sessionRepo,
		messageRepo:      messageRepo,
		formatterFactory: formatterFactory,
		logger:           logger,
	}
}

// ListSessions lists sessions, optionally scoped to one document.
func (uc *SessionUsecase) ListSessions(ctx context.Context, documentID string) ([]*entity.ChatSession, error) {
	return uc.sessionRepo.ListSessions(ctx, documentID)
}

// GetSessionWithMessages returns a session along with its full message
// history in chronological order.
func (uc *SessionUsecase) GetSessionWithMessages(ctx context.Context, sessionID string) (*entity.SessionWithMessages, error) {
	session, err := uc.sessionRepo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	messages, err := uc.messageRepo.GetSessionMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session messages: %w", err)
	}

	return &entity.SessionWithMessages{
		ChatSession: *session,
		Messages:    messages,
	}, nil
}

func (uc *SessionUsecase) UpdateSessionTitle(ctx context.Context, sessionID, title string) (*entity.ChatSession, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title", entity.ErrMissingField)
	}

	session, err := uc.sessionRepo.UpdateSessionTitle(ctx, sessionID, entity.SanitizeSessionTitle(title))
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "session title updated", zap.String("session_id", sessionID))

	return session, nil
}

func (uc *SessionUsecase) DeleteSession(ctx context.Context, sessionID string) error {
	if err := uc.sessionRepo.DeleteSession(ctx, sessionID); err != nil {
		return err
	}

	ctxzap.Info(ctx, "session deleted", zap.String("session_id", sessionID))

	return nil
}

// ExportResult is a rendered transcript ready to be served as a download.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportSession renders the session transcript in the requested format.
func (uc *SessionUsecase) ExportSession(ctx context.Context, sessionID string, format entity.ResultFormat) (*ExportResult, error) {
	withMessages, err := uc.GetSessionWithMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	fmtr, err := uc.formatterFactory.Create(format)
	if err != nil {
		return nil, err
	}

	content, err := fmtr.Format(withMessages.Title, renderTranscript(withMessages.Messages))
	if err != nil {
		return nil, fmt.Errorf("format transcript: %w", err)
	}

	ctxzap.Info(ctx, "session exported",
		zap.String("session_id", sessionID),
		zap.String("format", string(format)),
		zap.Int("size", len(content)),
	)

	return &ExportResult{
		Content:     content,
		ContentType: fmtr.ContentType(),
		Filename:    "chat_" + sessionID + fmtr.FileExtension(),
	}, nil
}
