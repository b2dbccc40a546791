// Package vectorstore provides the vector index used for similarity
// retrieval: chunk vectors with metadata, keyed by document.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/futig/docqa-backend/internal/entity"
)

// VectorIndex stores chunk embeddings and answers nearest-neighbor queries
// filtered by document. Implementations must be safe for concurrent use, and
// per-document upserts and deletes must be atomic from a reader's
// perspective.
type VectorIndex interface {
	// Upsert stores one record per chunk under a deterministic id derived
	// from the document id and chunk index. Re-upserting a document replaces
	// its records. chunks and vectors must have equal length.
	Upsert(ctx context.Context, documentID string, chunks []string, vectors [][]float32) error

	// Query returns up to topK results ranked by similarity descending,
	// restricted to documentID when non-empty. Ties keep insertion order.
	// An empty result set is not an error.
	Query(ctx context.Context, vector []float32, documentID string, topK int) ([]entity.SearchResult, error)

	// Delete removes every record owned by documentID. Deleting an unknown
	// document is a no-op.
	Delete(ctx context.Context, documentID string) error

	// Count reports the total number of stored records.
	Count(ctx context.Context) (int, error)

	// Health reports whether the underlying store is reachable.
	Health(ctx context.Context) bool
}

// ChunkID returns the deterministic record id for a chunk of a document.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("doc_%s_chunk_%d", documentID, index)
}
