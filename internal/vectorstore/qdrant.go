package vectorstore

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/entity"
	pkghttp "github.com/futig/docqa-backend/pkg/http"
)

// Qdrant is a VectorIndex backed by a Qdrant collection over its REST API.
// Point ids are deterministic UUIDs derived from the chunk record id, so
// re-upserting a chunk replaces its point.
type Qdrant struct {
	connector  *pkghttp.Connector
	collection string
	dimension  int
	logger     *zap.Logger
}

var _ VectorIndex = &Qdrant{}

func NewQdrant(connector *pkghttp.Connector, collection string, dimension int, logger *zap.Logger) *Qdrant {
	return &Qdrant{
		connector:  connector,
		collection: collection,
		dimension:  dimension,
		logger:     logger,
	}
}

// EnsureCollection creates the collection if it does not exist. Qdrant
// answers 2xx when the collection already exists with the same schema.
func (q *Qdrant) EnsureCollection(ctx context.Context) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     q.dimension,
			"distance": "Cosine",
		},
	}

	endpoint := fmt.Sprintf("/collections/%s", q.collection)
	if err := q.connector.DoRequest(ctx, http.MethodPut, endpoint, body, nil); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	return nil
}

func (q *Qdrant) Upsert(ctx context.Context, documentID string, chunks []string, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks, %d vectors", entity.ErrChunkVectorMismatch, len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]map[string]any, len(chunks))
	for i := range chunks {
		chunkID := ChunkID(documentID, i)
		points[i] = map[string]any{
			"id":     pointUUID(chunkID),
			"vector": vectors[i],
			"payload": map[string]any{
				"chunk_id":     chunkID,
				"document_id":  documentID,
				"chunk_index":  i,
				"chunk_length": len(chunks[i]),
				"content":      chunks[i],
			},
		}
	}

	endpoint := fmt.Sprintf("/collections/%s/points?wait=true", q.collection)
	if err := q.connector.DoRequest(ctx, http.MethodPut, endpoint, map[string]any{"points": points}, nil); err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}

	// A shrinking re-upsert must not leave stale higher-index points.
	stale := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "document_id", "match": map[string]any{"value": documentID}},
				{"key": "chunk_index", "range": map[string]any{"gte": len(chunks)}},
			},
		},
	}
	deleteEndpoint := fmt.Sprintf("/collections/%s/points/delete?wait=true", q.collection)
	if err := q.connector.DoRequest(ctx, http.MethodPost, deleteEndpoint, stale, nil); err != nil {
		return fmt.Errorf("prune stale points: %w", err)
	}

	ctxzap.Debug(ctx, "points upserted",
		zap.String("document_id", documentID),
		zap.Int("point_count", len(points)),
	)

	return nil
}

func (q *Qdrant) Query(ctx context.Context, vector []float32, documentID string, topK int) ([]entity.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	if documentID != "" {
		req["filter"] = documentFilter(documentID)
	}

	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}

	endpoint := fmt.Sprintf("/collections/%s/points/search", q.collection)
	if err := q.connector.DoRequest(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("search points: %w", err)
	}

	results := make([]entity.SearchResult, 0, len(resp.Result))
	for _, hit := range resp.Result {
		content, _ := hit.Payload["content"].(string)
		docID, _ := hit.Payload["document_id"].(string)
		chunkIndex, _ := hit.Payload["chunk_index"].(float64)
		chunkLength, _ := hit.Payload["chunk_length"].(float64)

		results = append(results, entity.SearchResult{
			Content: content,
			Score:   hit.Score,
			Metadata: entity.SearchResultMetadata{
				DocumentID:  docID,
				ChunkIndex:  int(chunkIndex),
				ChunkLength: int(chunkLength),
			},
		})
	}

	return results, nil
}

func (q *Qdrant) Delete(ctx context.Context, documentID string) error {
	req := map[string]any{
		"filter": documentFilter(documentID),
	}

	endpoint := fmt.Sprintf("/collections/%s/points/delete?wait=true", q.collection)
	if err := q.connector.DoRequest(ctx, http.MethodPost, endpoint, req, nil); err != nil {
		return fmt.Errorf("delete points: %w", err)
	}

	ctxzap.Info(ctx, "document points deleted", zap.String("document_id", documentID))

	return nil
}

func (q *Qdrant) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}

	endpoint := fmt.Sprintf("/collections/%s/points/count", q.collection)
	if err := q.connector.DoRequest(ctx, http.MethodPost, endpoint, map[string]any{"exact": true}, &resp); err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}

	return resp.Result.Count, nil
}

func (q *Qdrant) Health(ctx context.Context) bool {
	endpoint := fmt.Sprintf("/collections/%s", q.collection)
	return q.connector.DoRequest(ctx, http.MethodGet, endpoint, nil, nil) == nil
}

func documentFilter(documentID string) map[string]any {
	return map[string]any{
		"must": []map[string]any{
			{
				"key":   "document_id",
				"match": map[string]any{"value": documentID},
			},
		},
	}
}

func pointUUID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}
