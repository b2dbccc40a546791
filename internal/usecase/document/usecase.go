package document

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/chunker"
	"github.com/futig/docqa-backend/internal/pkg/validator"
	"github.com/futig/docqa-backend/internal/repository"
	"github.com/futig/docqa-backend/internal/vectorstore"
)

// DocumentUsecase implements document upload, ingestion, and lifecycle logic
type DocumentUsecase struct {
	documentRepo repository.DocumentRepository
	index        vectorstore.VectorIndex
	embedder     EmbeddingConnector
	extractor    TextExtractor
	chunker      *chunker.Chunker
	validator    *validator.Validator
	pool         *ants.Pool
	uploadDir    string
	logger       *zap.Logger
}

// NewUsecase creates a new document use case
func NewUsecase(
	documentRepo repository.DocumentRepository,
	index vectorstore.VectorIndex,
	embedder EmbeddingConnector,
	extractor TextExtractor,
	chnk *chunker.Chunker,
	fileValidator *validator.Validator,
	pool *ants.Pool,
	uploadDir string,
	logger *zap.Logger,
) *DocumentUsecase {
	return &DocumentUsecase{
		documentRepo: documentRepo,
		index:        index,
		embedder:     embedder,
		extractor:    extractor,
		chunker:      chnk,
		validator:    fileValidator,
		pool:         pool,
		uploadDir:    uploadDir,
		logger:       logger,
	}
}

// UploadDocument validates and stores the uploaded file, registers the
// document as pending, and schedules ingestion in the background. The
// returned document reflects the pending state.
func (uc *DocumentUsecase) UploadDocument(ctx context.Context, fileHeader *multipart.FileHeader) (*entity.Document, error) {
	if err := uc.validator.ValidateUpload(fileHeader); err != nil {
		return nil, err
	}

	documentID := uuid.New().String()
	fileType := validator.FileType(fileHeader.Filename)
	storedName := documentID + "." + fileType
	filePath := filepath.Join(uc.uploadDir, storedName)

	if err := uc.saveFile(fileHeader, filePath); err != nil {
		return nil, fmt.Errorf("save file: %w", err)
	}

	doc := &entity.Document{
		ID:               documentID,
		Filename:         storedName,
		OriginalFilename: validator.SanitizeFilename(fileHeader.Filename),
		FilePath:         filePath,
		FileSize:         fileHeader.Size,
		FileType:         fileType,
		Status:           entity.DocumentStatusPending,
	}

	if err := uc.documentRepo.CreateDocument(ctx, doc); err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("create document: %w", err)
	}

	ctxzap.Info(ctx, "document uploaded",
		zap.String("document_id", doc.ID),
		zap.String("filename", doc.OriginalFilename),
		zap.Int64("size", doc.FileSize),
	)

	// Ingestion runs in the background, detached from the request context
	bgCtx := ctxzap.ToContext(context.Background(), uc.logger.With(zap.String("document_id", doc.ID)))
	task := func() {
		uc.ProcessDocument(bgCtx, doc.ID)
	}
	if err := uc.pool.Submit(task); err != nil {
		go task()
	}

	return doc, nil
}

// ProcessDocument runs the ingestion pipeline for an uploaded document:
// extract text, chunk, embed, index. The document ends up completed with its
// chunk count, or failed with the error recorded.
func (uc *DocumentUsecase) ProcessDocument(ctx context.Context, documentID string) {
	doc, err := uc.documentRepo.GetDocument(ctx, documentID)
	if err != nil {
		ctxzap.Error(ctx, "failed to load document for processing", zap.Error(err))
		return
	}

	if err := uc.documentRepo.UpdateDocumentStatus(ctx, documentID, entity.DocumentStatusProcessing, 0, nil); err != nil {
		ctxzap.Error(ctx, "failed to mark document processing", zap.Error(err))
		return
	}

	totalChunks, err := uc.ingest(ctx, doc)
	if err != nil {
		ctxzap.Error(ctx, "document processing failed", zap.Error(err))
		uc.markFailed(ctx, documentID, err)
		return
	}

	if err := uc.documentRepo.UpdateDocumentStatus(ctx, documentID, entity.DocumentStatusCompleted, totalChunks, nil); err != nil {
		ctxzap.Error(ctx, "failed to mark document completed", zap.Error(err))
		return
	}

	ctxzap.Info(ctx, "document processed", zap.Int("total_chunks", totalChunks))
}

func (uc *DocumentUsecase) ingest(ctx context.Context, doc *entity.Document) (int, error) {
	text, err := uc.extractor.Extract(doc.FilePath, doc.FileType)
	if err != nil {
		return 0, fmt.Errorf("extract text: %w", err)
	}

	if strings.TrimSpace(text) == "" {
		return 0, entity.ErrNoTextExtracted
	}

	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		return 0, entity.ErrNoChunksCreated
	}

	vectors, err := uc.embedder.EmbedMany(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}

	if err := uc.index.Upsert(ctx, doc.ID, chunks, vectors); err != nil {
		return 0, fmt.Errorf("index chunks: %w", err)
	}

	return len(chunks), nil
}

func (uc *DocumentUsecase) markFailed(ctx context.Context, documentID string, cause error) {
	message := cause.Error()
	if err := uc.documentRepo.UpdateDocumentStatus(ctx, documentID, entity.DocumentStatusFailed, 0, &message); err != nil {
		ctxzap.Error(ctx, "failed to mark document failed", zap.Error(err))
	}
}

func (uc *DocumentUsecase) GetDocument(ctx context.Context, documentID string) (*entity.Document, error) {
	return uc.documentRepo.GetDocument(ctx, documentID)
}

func (uc *DocumentUsecase) ListDocuments(ctx context.Context) ([]*entity.Document, error) {
	return uc.documentRepo.ListDocuments(ctx)
}

// DeleteDocument removes the document everywhere: vector index first, then
// the database row (sessions and messages cascade), then the stored file.
func (uc *DocumentUsecase) DeleteDocument(ctx context.Context, documentID string) error {
	doc, err := uc.documentRepo.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	if err := uc.index.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}

	if err := uc.documentRepo.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if err := os.Remove(doc.FilePath); err != nil && !os.IsNotExist(err) {
		ctxzap.Warn(ctx, "failed to remove stored file",
			zap.String("file_path", doc.FilePath),
			zap.Error(err),
		)
	}

	ctxzap.Info(ctx, "document deleted", zap.String("document_id", documentID))

	return nil
}

func (uc *DocumentUsecase) saveFile(fileHeader *multipart.FileHeader, dst string) error {
	if err := os.MkdirAll(uc.uploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dst)
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}
