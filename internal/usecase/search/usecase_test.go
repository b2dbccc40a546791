package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) ModelInfo() entity.EmbeddingModelInfo {
	return entity.EmbeddingModelInfo{Name: "fake", Dimension: len(f.vector)}
}

type fakeIndex struct {
	results        []entity.SearchResult
	err            error
	lastTopK       int
	lastDocumentID string
}

func (f *fakeIndex) Upsert(ctx context.Context, documentID string, chunks []string, vectors [][]float32) error {
	return nil
}

func (f *fakeIndex) Query(ctx context.Context, vector []float32, documentID string, topK int) ([]entity.SearchResult, error) {
	f.lastTopK = topK
	f.lastDocumentID = documentID
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeIndex) Delete(ctx context.Context, documentID string) error { return nil }

func (f *fakeIndex) Count(ctx context.Context) (int, error) { return len(f.results), nil }

func (f *fakeIndex) Health(ctx context.Context) bool { return true }

type fakeDocumentRepo struct {
	docs map[string]*entity.Document
}

func (f *fakeDocumentRepo) CreateDocument(ctx context.Context, doc *entity.Document) error {
	return nil
}

func (f *fakeDocumentRepo) GetDocument(ctx context.Context, documentID string) (*entity.Document, error) {
	doc, ok := f.docs[documentID]
	if !ok {
		return nil, entity.ErrDocumentNotFound
	}
	return doc, nil
}

func (f *fakeDocumentRepo) ListDocuments(ctx context.Context) ([]*entity.Document, error) {
	return nil, nil
}

func (f *fakeDocumentRepo) UpdateDocumentStatus(ctx context.Context, documentID string, status entity.DocumentStatus, totalChunks int, errorMessage *string) error {
	return nil
}

func (f *fakeDocumentRepo) DeleteDocument(ctx context.Context, documentID string) error {
	return nil
}

func newTestUsecase(embedder *fakeEmbedder, index *fakeIndex, repo *fakeDocumentRepo) *SearchUsecase {
	if repo == nil {
		repo = &fakeDocumentRepo{docs: map[string]*entity.Document{}}
	}
	cfg := config.RetrievalConfig{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		TopK:         5,
		MaxTopK:      20,
	}
	return NewUsecase(embedder, index, repo, cfg, zap.NewNop())
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	uc := newTestUsecase(&fakeEmbedder{}, &fakeIndex{}, nil)

	_, err := uc.Retrieve(context.Background(), "   ", "", 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrMissingField))
}

func TestRetrieve_DefaultsTopK(t *testing.T) {
	index := &fakeIndex{}
	uc := newTestUsecase(&fakeEmbedder{vector: []float32{1, 0}}, index, nil)

	_, err := uc.Retrieve(context.Background(), "question", "doc-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 5, index.lastTopK)
	assert.Equal(t, "doc-1", index.lastDocumentID)
}

func TestRetrieve_ClampsTopK(t *testing.T) {
	index := &fakeIndex{}
	uc := newTestUsecase(&fakeEmbedder{vector: []float32{1, 0}}, index, nil)

	_, err := uc.Retrieve(context.Background(), "question", "", 100)
	require.NoError(t, err)
	assert.Equal(t, 20, index.lastTopK)
}

func TestRetrieve_EmbedError(t *testing.T) {
	embedErr := errors.New("backend down")
	uc := newTestUsecase(&fakeEmbedder{err: embedErr}, &fakeIndex{}, nil)

	_, err := uc.Retrieve(context.Background(), "question", "", 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, embedErr))
}

func TestSemanticSearch_ReturnsResults(t *testing.T) {
	index := &fakeIndex{
		results: []entity.SearchResult{
			{Content: "first", Score: 0.9},
			{Content: "second", Score: 0.7},
		},
	}
	repo := &fakeDocumentRepo{docs: map[string]*entity.Document{
		"doc-1": {ID: "doc-1", Status: entity.DocumentStatusCompleted},
	}}
	uc := newTestUsecase(&fakeEmbedder{vector: []float32{1, 0}}, index, repo)

	resp, err := uc.SemanticSearch(context.Background(), &entity.SemanticSearchRequest{
		Query:      "question",
		DocumentID: "doc-1",
		TopK:       3,
	})
	require.NoError(t, err)
	assert.Equal(t, "question", resp.Query)
	assert.Len(t, resp.Results, 2)
	assert.Equal(t, "first", resp.Results[0].Content)
	assert.Equal(t, 3, index.lastTopK)
}

func TestSemanticSearch_DocumentNotReady(t *testing.T) {
	repo := &fakeDocumentRepo{docs: map[string]*entity.Document{
		"doc-2": {ID: "doc-2", Status: entity.DocumentStatusProcessing},
	}}
	uc := newTestUsecase(&fakeEmbedder{vector: []float32{1, 0}}, &fakeIndex{}, repo)

	_, err := uc.SemanticSearch(context.Background(), &entity.SemanticSearchRequest{
		Query:      "question",
		DocumentID: "doc-2",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrDocumentNotReady))
}

func TestSemanticSearch_DocumentMissing(t *testing.T) {
	uc := newTestUsecase(&fakeEmbedder{vector: []float32{1, 0}}, &fakeIndex{}, nil)

	_, err := uc.SemanticSearch(context.Background(), &entity.SemanticSearchRequest{
		Query:      "question",
		DocumentID: "missing",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrDocumentNotFound))
}

func TestSemanticSearch_NoDocumentFilterSkipsLookup(t *testing.T) {
	index := &fakeIndex{}
	uc := newTestUsecase(&fakeEmbedder{vector: []float32{1, 0}}, index, nil)

	resp, err := uc.SemanticSearch(context.Background(), &entity.SemanticSearchRequest{
		Query: "question",
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, "", index.lastDocumentID)
}
