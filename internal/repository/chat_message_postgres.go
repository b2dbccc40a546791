package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/futig/docqa-backend/internal/entity"
)

// ChatMessageRepository defines the interface for chat message persistence
type ChatMessageRepository interface {
	CreateMessage(ctx context.Context, sessionID string, role entity.MessageRole, content string, contextChunks []entity.ContextChunk) (*entity.ChatMessage, error)
	GetSessionMessages(ctx context.Context, sessionID string) ([]*entity.ChatMessage, error)
}

var _ ChatMessageRepository = &ChatMessagePostgres{}

// ChatMessagePostgres implements ChatMessageRepository using PostgreSQL.
// Context chunks are stored alongside each assistant message as JSONB.
type ChatMessagePostgres struct {
	db *pgxpool.Pool
}

func NewChatMessagePostgres(db *pgxpool.Pool) *ChatMessagePostgres {
	return &ChatMessagePostgres{
		db: db,
	}
}

func (r *ChatMessagePostgres) CreateMessage(
	ctx context.Context,
	sessionID string,
	role entity.MessageRole,
	content string,
	contextChunks []entity.ContextChunk,
) (*entity.ChatMessage, error) {
	var chunksJSON []byte
	if len(contextChunks) > 0 {
		data, err := json.Marshal(contextChunks)
		if err != nil {
			return nil, fmt.Errorf("marshal context chunks: %w", err)
		}
		chunksJSON = data
	}

	query := `
		INSERT INTO chat_messages (session_id, role, content, context_chunks)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	msg := &entity.ChatMessage{
		SessionID:     sessionID,
		Role:          role,
		Content:       content,
		ContextChunks: contextChunks,
	}

	err := r.db.QueryRow(ctx, query, sessionID, role, content, chunksJSON).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	return msg, nil
}

func (r *ChatMessagePostgres) GetSessionMessages(ctx context.Context, sessionID string) ([]*entity.ChatMessage, error) {
	query := `
		SELECT id, session_id, role, content, context_chunks, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*entity.ChatMessage, 0)
	for rows.Next() {
		var msg entity.ChatMessage
		var chunksJSON []byte

		err := rows.Scan(
			&msg.ID,
			&msg.SessionID,
			&msg.Role,
			&msg.Content,
			&chunksJSON,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}

		if len(chunksJSON) > 0 {
			if err := json.Unmarshal(chunksJSON, &msg.ContextChunks); err != nil {
				return nil, fmt.Errorf("unmarshal context chunks: %w", err)
			}
		}

		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get session messages: %w", err)
	}

	return messages, nil
}
