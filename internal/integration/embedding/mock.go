package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/entity"
)

// MockConnector produces deterministic pseudo-embeddings without calling an
// embedding service. Identical texts always map to identical unit vectors.
type MockConnector struct {
	dimension int
	logger    *zap.Logger
}

func NewMockConnector(dimension int, logger *zap.Logger) *MockConnector {
	if dimension <= 0 {
		dimension = 16
	}
	return &MockConnector{
		dimension: dimension,
		logger:    logger,
	}
}

func (m *MockConnector) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	ctxzap.Debug(ctx, "[MOCK] embedding texts", zap.Int("text_count", len(texts)))

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.hashVector(text)
	}

	return vectors, nil
}

func (m *MockConnector) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	ctxzap.Debug(ctx, "[MOCK] embedding text")
	return m.hashVector(text), nil
}

func (m *MockConnector) ModelInfo() entity.EmbeddingModelInfo {
	return entity.EmbeddingModelInfo{
		Name:          "mock-embedder",
		Dimension:     m.dimension,
		MaxInputChars: 8192,
	}
}

func (m *MockConnector) Health(ctx context.Context) bool {
	return true
}

// hashVector expands the text hash into a unit vector of the configured
// dimension.
func (m *MockConnector) hashVector(text string) []float32 {
	sum := sha256.Sum256([]byte(text))

	raw := make([]float64, m.dimension)
	var norm float64
	for i := range raw {
		seed := binary.BigEndian.Uint32(sum[(i*4)%28 : (i*4)%28+4])
		raw[i] = float64(seed%2000)/1000.0 - 1.0 + float64(i)*1e-3
		norm += raw[i] * raw[i]
	}

	norm = math.Sqrt(norm)
	vector := make([]float32, m.dimension)
	for i, v := range raw {
		if norm == 0 {
			vector[i] = float32(v)
			continue
		}
		vector[i] = float32(v / norm)
	}

	return vector
}
