package search

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/chunker"
	"github.com/futig/docqa-backend/internal/vectorstore"
)

const tokenDim = 64

// tokenEmbedder embeds text as the normalized sum of per-word hash vectors,
// so texts sharing words land close together. Deterministic, no model.
type tokenEmbedder struct{}

func (tokenEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	return embedTokens(text), nil
}

func (tokenEmbedder) ModelInfo() entity.EmbeddingModelInfo {
	return entity.EmbeddingModelInfo{Name: "token-hash", Dimension: tokenDim}
}

func embedTokens(text string) []float32 {
	sum := make([]float64, tokenDim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?\"'")
		if word == "" {
			continue
		}
		seed := sha256.Sum256([]byte(word))
		for i := 0; i < tokenDim; i++ {
			bits := binary.BigEndian.Uint32(seed[(i*4)%28 : (i*4)%28+4])
			// Spread each word over the dimensions with deterministic signs.
			if (bits>>(uint(i)%32))&1 == 1 {
				sum[i] += 1
			} else {
				sum[i] -= 1
			}
		}
	}

	var norm float64
	for _, v := range sum {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	vector := make([]float32, tokenDim)
	if norm == 0 {
		return vector
	}
	for i, v := range sum {
		vector[i] = float32(v / norm)
	}
	return vector
}

func TestRetrieveRanksMatchingChunkFirst(t *testing.T) {
	ctx := context.Background()

	text := "Cats are mammals. Dogs are mammals too. Fish are not mammals."
	chunks := chunker.New(40, 10).Split(text)
	require.GreaterOrEqual(t, len(chunks), 2)
	require.LessOrEqual(t, len(chunks), 3)

	index := vectorstore.NewMemory()
	vectors := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		vectors[i] = embedTokens(chunk)
	}
	require.NoError(t, index.Upsert(ctx, "doc-1", chunks, vectors))

	cfg := config.RetrievalConfig{TopK: 5, MaxTopK: 20}
	uc := NewUsecase(tokenEmbedder{}, index, &fakeDocumentRepo{docs: map[string]*entity.Document{}}, cfg, zap.NewNop())

	results, err := uc.Retrieve(ctx, "Are dogs mammals?", "doc-1", 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Contains(t, results[0].Content, "Dogs are mammals too.")
}
