package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/repository"
	"github.com/futig/docqa-backend/internal/vectorstore"
)

// SearchUsecase implements embedding-based retrieval over indexed documents
type SearchUsecase struct {
	embedder     EmbeddingConnector
	index        vectorstore.VectorIndex
	documentRepo repository.DocumentRepository
	cfg          config.RetrievalConfig
	logger       *zap.Logger
}

// NewUsecase creates a new search use case
func NewUsecase(
	embedder EmbeddingConnector,
	index vectorstore.VectorIndex,
	documentRepo repository.DocumentRepository,
	cfg config.RetrievalConfig,
	logger *zap.Logger,
) *SearchUsecase {
	return &SearchUsecase{
		embedder:     embedder,
		index:        index,
		documentRepo: documentRepo,
		cfg:          cfg,
		logger:       logger,
	}
}

// Retrieve embeds the query and returns the most similar chunks, best first.
// An empty documentID searches across all documents.
func (uc *SearchUsecase) Retrieve(ctx context.Context, query, documentID string, topK int) ([]entity.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query", entity.ErrMissingField)
	}

	if topK <= 0 {
		topK = uc.cfg.TopK
	}
	if topK > uc.cfg.MaxTopK {
		topK = uc.cfg.MaxTopK
	}

	vector, err := uc.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := uc.index.Query(ctx, vector, documentID, topK)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	ctxzap.Debug(ctx, "chunks retrieved",
		zap.String("document_id", documentID),
		zap.Int("top_k", topK),
		zap.Int("result_count", len(results)),
	)

	return results, nil
}

// SemanticSearch serves the standalone search endpoint. When a document is
// named, it must exist and be fully indexed.
func (uc *SearchUsecase) SemanticSearch(ctx context.Context, req *entity.SemanticSearchRequest) (*entity.SemanticSearchResponse, error) {
	if req.DocumentID != "" {
		doc, err := uc.documentRepo.GetDocument(ctx, req.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("get document: %w", err)
		}

		if doc.Status != entity.DocumentStatusCompleted {
			return nil, fmt.Errorf("%w: document status is %s", entity.ErrDocumentNotReady, doc.Status)
		}
	}

	results, err := uc.Retrieve(ctx, req.Query, req.DocumentID, req.TopK)
	if err != nil {
		return nil, err
	}

	return &entity.SemanticSearchResponse{
		Results: results,
		Query:   req.Query,
	}, nil
}
