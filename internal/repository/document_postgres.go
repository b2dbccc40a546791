package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/futig/docqa-backend/internal/entity"
)

// DocumentRepository defines the interface for document persistence
type DocumentRepository interface {
	CreateDocument(ctx context.Context, doc *entity.Document) error
	GetDocument(ctx context.Context, documentID string) (*entity.Document, error)
	ListDocuments(ctx context.Context) ([]*entity.Document, error)
	UpdateDocumentStatus(ctx context.Context, documentID string, status entity.DocumentStatus, totalChunks int, errorMessage *string) error
	DeleteDocument(ctx context.Context, documentID string) error
}

var _ DocumentRepository = &DocumentPostgres{}

// DocumentPostgres implements DocumentRepository using PostgreSQL
type DocumentPostgres struct {
	db *pgxpool.Pool
}

func NewDocumentPostgres(db *pgxpool.Pool) *DocumentPostgres {
	return &DocumentPostgres{
		db: db,
	}
}

const documentColumns = `id, filename, original_filename, file_path, file_size, file_type, status, total_chunks, error_message, uploaded_at`

func (r *DocumentPostgres) CreateDocument(ctx context.Context, doc *entity.Document) error {
	query := `
		INSERT INTO documents (id, filename, original_filename, file_path, file_size, file_type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING uploaded_at`

	err := r.db.QueryRow(ctx, query,
		doc.ID,
		doc.Filename,
		doc.OriginalFilename,
		doc.FilePath,
		doc.FileSize,
		doc.FileType,
		doc.Status,
	).Scan(&doc.UploadedAt)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

func (r *DocumentPostgres) GetDocument(ctx context.Context, documentID string) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	doc, err := scanDocument(r.db.QueryRow(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return doc, nil
}

func (r *DocumentPostgres) ListDocuments(ctx context.Context) ([]*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents ORDER BY uploaded_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	documents := make([]*entity.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		documents = append(documents, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	return documents, nil
}

func (r *DocumentPostgres) UpdateDocumentStatus(
	ctx context.Context,
	documentID string,
	status entity.DocumentStatus,
	totalChunks int,
	errorMessage *string,
) error {
	query := `
		UPDATE documents
		SET status = $2, total_chunks = $3, error_message = $4
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, documentID, status, totalChunks, errorMessage)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return entity.ErrDocumentNotFound
	}

	return nil
}

func (r *DocumentPostgres) DeleteDocument(ctx context.Context, documentID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return entity.ErrDocumentNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var doc entity.Document

	err := row.Scan(
		&doc.ID,
		&doc.Filename,
		&doc.OriginalFilename,
		&doc.FilePath,
		&doc.FileSize,
		&doc.FileType,
		&doc.Status,
		&doc.TotalChunks,
		&doc.ErrorMessage,
		&doc.UploadedAt,
	)
	if err != nil {
		return nil, err
	}

	return &doc, nil
}
