package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/prompt"
)

// Emitter delivers chat events to the client. A returned error aborts the
// turn; the transport is assumed gone.
type Emitter func(entity.ChatEvent) error

// StreamAnswer runs one full question-answering turn, emitting events as it
// progresses: status updates, the retrieved context, the session when the
// turn creates one (always before any answer fragment), answer fragments,
// the full answer, and a final completion marker. Failures are reported to
// the client as an error event and returned to the caller.
func (uc *ChatUsecase) StreamAnswer(ctx context.Context, req *entity.ChatRequest, emit Emitter) error {
	question, doc, err := uc.prepareTurn(ctx, req)
	if err != nil {
		uc.emitError(ctx, emit, err)
		return err
	}

	if err := emit(entity.StatusEvent(statusSearching)); err != nil {
		return fmt.Errorf("emit status: %w", err)
	}

	results, err := uc.retriever.Retrieve(ctx, question, doc.ID, uc.topK)
	if err != nil {
		err = fmt.Errorf("retrieve context: %w", err)
		uc.emitError(ctx, emit, err)
		return err
	}

	// An empty retrieval ends the turn with the canned answer alone: no
	// session is created and nothing is persisted.
	if len(results) == 0 {
		if err := emit(entity.AnswerEvent(noContextAnswer)); err != nil {
			return fmt.Errorf("emit answer: %w", err)
		}

		ctxzap.Info(ctx, "chat turn ended without context",
			zap.String("document_id", doc.ID),
		)
		return nil
	}

	contextChunks := toContextChunks(results)
	if err := emit(entity.ContextEvent(contextChunks)); err != nil {
		return fmt.Errorf("emit context: %w", err)
	}

	session, created, err := uc.ensureSession(ctx, req, question)
	if err != nil {
		uc.emitError(ctx, emit, err)
		return err
	}

	if created {
		if err := emit(entity.SessionEvent(session)); err != nil {
			return fmt.Errorf("emit session: %w", err)
		}
	}

	answer, err := uc.streamGeneration(ctx, question, results, emit)
	if err != nil {
		return err
	}

	if err := uc.persistTurn(ctx, session.ID, question, answer, contextChunks); err != nil {
		uc.emitError(ctx, emit, err)
		return err
	}

	if err := emit(entity.CompleteEvent(session.ID)); err != nil {
		return fmt.Errorf("emit complete: %w", err)
	}

	ctxzap.Info(ctx, "chat turn completed",
		zap.String("session_id", session.ID),
		zap.Int("context_chunks", len(contextChunks)),
		zap.Int("answer_length", len(answer)),
	)

	return nil
}

// streamGeneration forwards model fragments to the client and returns the
// assembled answer.
func (uc *ChatUsecase) streamGeneration(
	ctx context.Context,
	question string,
	results []entity.SearchResult,
	emit Emitter,
) (string, error) {
	if err := emit(entity.StatusEvent(statusGenerating)); err != nil {
		return "", fmt.Errorf("emit status: %w", err)
	}

	fragments, err := uc.llm.GenerateStream(ctx, prompt.Build(question, results))
	if err != nil {
		err = fmt.Errorf("start generation: %w", err)
		uc.emitError(ctx, emit, err)
		return "", err
	}

	var sb strings.Builder
	for fragment := range fragments {
		sb.WriteString(fragment.Text)

		if err := emit(entity.AnswerFragmentEvent(fragment.Text)); err != nil {
			return "", fmt.Errorf("emit answer fragment: %w", err)
		}

		// A failed fragment carries the error text in-band; the turn
		// still completes with whatever was generated so far.
		if fragment.Failed {
			ctxzap.Warn(ctx, "generation stream degraded to inline error")
			break
		}
	}

	answer := sb.String()
	if err := emit(entity.AnswerEvent(answer)); err != nil {
		return "", fmt.Errorf("emit answer: %w", err)
	}

	return answer, nil
}

func (uc *ChatUsecase) emitError(ctx context.Context, emit Emitter, cause error) {
	ctxzap.Error(ctx, "chat turn failed", zap.Error(cause))

	if err := emit(entity.ErrorEvent(userMessage(cause))); err != nil {
		ctxzap.Warn(ctx, "failed to emit error event", zap.Error(err))
	}
}

// userMessage maps internal errors to client-facing text.
func userMessage(err error) string {
	switch {
	case errors.Is(err, entity.ErrEmptyQuestion):
		return "Question cannot be empty"
	case errors.Is(err, entity.ErrDocumentNotFound):
		return "Document not found"
	case errors.Is(err, entity.ErrDocumentNotReady):
		return "Document is still being processed"
	case errors.Is(err, entity.ErrSessionNotFound):
		return "Chat session not found"
	default:
		return "Failed to process your question"
	}
}
