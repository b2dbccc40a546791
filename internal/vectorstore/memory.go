package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/futig/docqa-backend/internal/entity"
)

type memoryRecord struct {
	id         string
	documentID string
	chunkIndex int
	content    string
	vector     []float32
	seq        int
}

// Memory is an in-process VectorIndex using brute-force dot-product search.
// Vectors are expected to be L2-normalized, so the dot product equals cosine
// similarity and score = 1 - cosine distance.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	byID      map[string]*memoryRecord
	nextSeq   int
}

var _ VectorIndex = &Memory{}

func NewMemory() *Memory {
	return &Memory{
		byID: make(map[string]*memoryRecord),
	}
}

func (m *Memory) Upsert(ctx context.Context, documentID string, chunks []string, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks, %d vectors", entity.ErrChunkVectorMismatch, len(chunks), len(vectors))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dimension == 0 && len(vectors) > 0 {
		m.dimension = len(vectors[0])
	}
	for i, vector := range vectors {
		if len(vector) != m.dimension {
			return fmt.Errorf("%w: vector %d has dimension %d, want %d",
				entity.ErrDimensionMismatch, i, len(vector), m.dimension)
		}
	}

	// Drop records beyond the new chunk count so a shrinking re-upsert
	// leaves no stale entries behind.
	for id, record := range m.byID {
		if record.documentID == documentID && record.chunkIndex >= len(chunks) {
			delete(m.byID, id)
		}
	}

	for i, chunk := range chunks {
		id := ChunkID(documentID, i)
		if existing, ok := m.byID[id]; ok {
			// Replacement keeps the original insertion position.
			existing.content = chunk
			existing.vector = vectors[i]
			continue
		}
		m.byID[id] = &memoryRecord{
			id:         id,
			documentID: documentID,
			chunkIndex: i,
			content:    chunk,
			vector:     vectors[i],
			seq:        m.nextSeq,
		}
		m.nextSeq++
	}

	return nil
}

func (m *Memory) Query(ctx context.Context, vector []float32, documentID string, topK int) ([]entity.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		record *memoryRecord
		score  float64
	}

	candidates := make([]scored, 0, len(m.byID))
	for _, record := range m.byID {
		if documentID != "" && record.documentID != documentID {
			continue
		}
		candidates = append(candidates, scored{record: record, score: dot(record.vector, vector)})
	}

	// Sort by insertion order first so equal scores stay stable.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].record.seq < candidates[j].record.seq
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if topK > len(candidates) {
		topK = len(candidates)
	}

	results := make([]entity.SearchResult, 0, topK)
	for _, candidate := range candidates[:topK] {
		results = append(results, entity.SearchResult{
			Content: candidate.record.content,
			Score:   candidate.score,
			Metadata: entity.SearchResultMetadata{
				DocumentID:  candidate.record.documentID,
				ChunkIndex:  candidate.record.chunkIndex,
				ChunkLength: len(candidate.record.content),
			},
		})
	}

	return results, nil
}

func (m *Memory) Delete(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, record := range m.byID {
		if record.documentID == documentID {
			delete(m.byID, id)
		}
	}

	return nil
}

func (m *Memory) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.byID), nil
}

func (m *Memory) Health(ctx context.Context) bool {
	return true
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}

	return sum
}
