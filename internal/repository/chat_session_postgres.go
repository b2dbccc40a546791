package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/futig/docqa-backend/internal/entity"
)

// ChatSessionRepository defines the interface for chat session persistence
type ChatSessionRepository interface {
	CreateSession(ctx context.Context, documentID, title string) (*entity.ChatSession, error)
	GetSession(ctx context.Context, sessionID string) (*entity.ChatSession, error)
	ListSessions(ctx context.Context, documentID string) ([]*entity.ChatSession, error)
	UpdateSessionTitle(ctx context.Context, sessionID, title string) (*entity.ChatSession, error)
	TouchSession(ctx context.Context, sessionID string) error
	DeleteSession(ctx context.Context, sessionID string) error
}

var _ ChatSessionRepository = &ChatSessionPostgres{}

// ChatSessionPostgres implements ChatSessionRepository using PostgreSQL
type ChatSessionPostgres struct {
	db *pgxpool.Pool
}

func NewChatSessionPostgres(db *pgxpool.Pool) *ChatSessionPostgres {
	return &ChatSessionPostgres{
		db: db,
	}
}

func (r *ChatSessionPostgres) CreateSession(ctx context.Context, documentID, title string) (*entity.ChatSession, error) {
	query := `
		INSERT INTO chat_sessions (document_id, title)
		VALUES ($1, $2)
		RETURNING id, document_id, title, created_at, updated_at`

	session, err := scanSession(r.db.QueryRow(ctx, query, documentID, title))
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return session, nil
}

func (r *ChatSessionPostgres) GetSession(ctx context.Context, sessionID string) (*entity.ChatSession, error) {
	query := `SELECT id, document_id, title, created_at, updated_at FROM chat_sessions WHERE id = $1`

	session, err := scanSession(r.db.QueryRow(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	return session, nil
}

// ListSessions returns sessions ordered by most recent activity. An empty
// documentID lists sessions across all documents.
func (r *ChatSessionPostgres) ListSessions(ctx context.Context, documentID string) ([]*entity.ChatSession, error) {
	query := `SELECT id, document_id, title, created_at, updated_at FROM chat_sessions`
	args := []any{}

	if documentID != "" {
		query += ` WHERE document_id = $1`
		args = append(args, documentID)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*entity.ChatSession, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return sessions, nil
}

func (r *ChatSessionPostgres) UpdateSessionTitle(ctx context.Context, sessionID, title string) (*entity.ChatSession, error) {
	query := `
		UPDATE chat_sessions
		SET title = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, document_id, title, created_at, updated_at`

	session, err := scanSession(r.db.QueryRow(ctx, query, sessionID, title))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrSessionNotFound
		}
		return nil, fmt.Errorf("update session title: %w", err)
	}

	return session, nil
}

func (r *ChatSessionPostgres) TouchSession(ctx context.Context, sessionID string) error {
	tag, err := r.db.Exec(ctx, `UPDATE chat_sessions SET updated_at = now() WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return entity.ErrSessionNotFound
	}

	return nil
}

func (r *ChatSessionPostgres) DeleteSession(ctx context.Context, sessionID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM chat_sessions WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return entity.ErrSessionNotFound
	}

	return nil
}

func scanSession(row rowScanner) (*entity.ChatSession, error) {
	var session entity.ChatSession

	err := row.Scan(
		&session.ID,
		&session.DocumentID,
		&session.Title,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &session, nil
}
