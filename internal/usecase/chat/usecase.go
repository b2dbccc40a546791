package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/prompt"
	"github.com/futig/docqa-backend/internal/repository"
)

const (
	// noContextAnswer is returned verbatim when retrieval finds nothing
	noContextAnswer = "I couldn't find relevant information in the document to answer your question."

	statusSearching  = "Searching document..."
	statusGenerating = "Generating response..."
)

// ChatUsecase implements document question answering over chat sessions
type ChatUsecase struct {
	documentRepo repository.DocumentRepository
	sessionRepo  repository.ChatSessionRepository
	messageRepo  repository.ChatMessageRepository
	retriever    Retriever
	llm          LLMConnector
	topK         int
	logger       *zap.Logger
}

// NewUsecase creates a new chat use case
func NewUsecase(
	documentRepo repository.DocumentRepository,
	sessionRepo repository.ChatSessionRepository,
	messageRepo repository.ChatMessageRepository,
	retriever Retriever,
	llm LLMConnector,
	topK int,
	logger *zap.Logger,
) *ChatUsecase {
	return &ChatUsecase{
		documentRepo: documentRepo,
		sessionRepo:  sessionRepo,
		messageRepo:  messageRepo,
		retriever:    retriever,
		llm:          llm,
		topK:         topK,
		logger:       logger,
	}
}

// Ask answers a question in one shot, without streaming. It follows the same
// pipeline as StreamAnswer and persists the turn the same way.
func (uc *ChatUsecase) Ask(ctx context.Context, req *entity.ChatRequest) (*entity.ChatAnswer, error) {
	question, doc, err := uc.prepareTurn(ctx, req)
	if err != nil {
		return nil, err
	}

	results, err := uc.retriever.Retrieve(ctx, question, doc.ID, uc.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	// An empty retrieval yields the canned answer without touching session
	// or message state.
	if len(results) == 0 {
		return &entity.ChatAnswer{
			Answer:        noContextAnswer,
			ContextChunks: []entity.ContextChunk{},
		}, nil
	}

	session, _, err := uc.ensureSession(ctx, req, question)
	if err != nil {
		return nil, err
	}

	answer, err := uc.llm.Generate(ctx, prompt.Build(question, results))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	contextChunks := toContextChunks(results)
	if err := uc.persistTurn(ctx, session.ID, question, answer, contextChunks); err != nil {
		return nil, err
	}

	return &entity.ChatAnswer{
		Answer:        answer,
		ContextChunks: contextChunks,
		SessionID:     session.ID,
	}, nil
}

// prepareTurn validates the question and checks the target document is
// ready for chat.
func (uc *ChatUsecase) prepareTurn(ctx context.Context, req *entity.ChatRequest) (string, *entity.Document, error) {
	question := strings.TrimSpace(req.Message)
	if question == "" {
		return "", nil, entity.ErrEmptyQuestion
	}

	doc, err := uc.documentRepo.GetDocument(ctx, req.DocumentID)
	if err != nil {
		return "", nil, fmt.Errorf("get document: %w", err)
	}

	if doc.Status != entity.DocumentStatusCompleted {
		return "", nil, fmt.Errorf("%w: document status is %s", entity.ErrDocumentNotReady, doc.Status)
	}

	return question, doc, nil
}

// ensureSession resolves the session for a turn, creating one lazily with a
// generated title when the request names none. The second return reports
// whether this turn created the session.
func (uc *ChatUsecase) ensureSession(ctx context.Context, req *entity.ChatRequest, question string) (*entity.ChatSession, bool, error) {
	if req.SessionID != nil && *req.SessionID != "" {
		session, err := uc.sessionRepo.GetSession(ctx, *req.SessionID)
		if err != nil {
			return nil, false, fmt.Errorf("get session: %w", err)
		}

		if session.DocumentID != req.DocumentID {
			return nil, false, fmt.Errorf("%w: session belongs to another document", entity.ErrSessionNotFound)
		}

		return session, false, nil
	}

	title := uc.generateTitle(ctx, question)

	session, err := uc.sessionRepo.CreateSession(ctx, req.DocumentID, title)
	if err != nil {
		return nil, false, fmt.Errorf("create session: %w", err)
	}

	ctxzap.Info(ctx, "chat session created",
		zap.String("session_id", session.ID),
		zap.String("title", title),
	)

	return session, true, nil
}

// generateTitle asks the model for a short session title. Any failure falls
// back to a fixed title rather than failing the turn.
func (uc *ChatUsecase) generateTitle(ctx context.Context, question string) string {
	raw, err := uc.llm.Generate(ctx, prompt.Title(question))
	if err != nil {
		ctxzap.Warn(ctx, "title generation failed, using fallback", zap.Error(err))
		return entity.FallbackSessionTitle
	}

	return entity.SanitizeSessionTitle(raw)
}

func (uc *ChatUsecase) persistTurn(ctx context.Context, sessionID, question, answer string, contextChunks []entity.ContextChunk) error {
	if _, err := uc.messageRepo.CreateMessage(ctx, sessionID, entity.MessageRoleUser, question, nil); err != nil {
		return fmt.Errorf("persist user message: %w", err)
	}

	if _, err := uc.messageRepo.CreateMessage(ctx, sessionID, entity.MessageRoleAssistant, answer, contextChunks); err != nil {
		return fmt.Errorf("persist assistant message: %w", err)
	}

	if err := uc.sessionRepo.TouchSession(ctx, sessionID); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	return nil
}

func toContextChunks(results []entity.SearchResult) []entity.ContextChunk {
	chunks := make([]entity.ContextChunk, 0, len(results))
	for _, result := range results {
		chunks = append(chunks, entity.ContextChunk{
			Content:    result.Content,
			Score:      result.Score,
			ChunkIndex: result.Metadata.ChunkIndex,
		})
	}
	return chunks
}
