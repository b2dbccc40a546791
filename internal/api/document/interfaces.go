package document

import (
	"context"
	"mime/multipart"

	"github.com/futig/docqa-backend/internal/entity"
)

type DocumentUsecase interface {
	UploadDocument(ctx context.Context, fileHeader *multipart.FileHeader) (*entity.Document, error)
	GetDocument(ctx context.Context, documentID string) (*entity.Document, error)
	ListDocuments(ctx context.Context) ([]*entity.Document, error)
	DeleteDocument(ctx context.Context, documentID string) error
}
