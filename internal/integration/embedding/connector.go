package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"net/http"
	"sync"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/panjf2000/ants/v2"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/integration/common"
	pkghttp "github.com/futig/docqa-backend/pkg/http"
)

// batchSize caps how many texts go into a single embed request.
const batchSize = 32

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// Connector produces embeddings from an Ollama-compatible embedding service.
// Vectors are L2-normalized before being returned, so cosine similarity
// reduces to a dot product downstream. Single-text lookups go through a TTL
// cache keyed by content hash.
type Connector struct {
	config    config.EmbeddingConnectorConfig
	connector *pkghttp.Connector
	pool      *ants.Pool
	cache     *cache.Cache
	logger    *zap.Logger
}

func NewConnector(
	cfg config.EmbeddingConnectorConfig,
	pool *ants.Pool,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		pool:      pool,
		cache:     cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		logger:    logger,
	}
}

// EmbedMany embeds a batch of texts, preserving input order. Batches are
// dispatched to the worker pool and embedded concurrently.
func (c *Connector) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctxzap.Debug(ctx, "embedding texts", zap.Int("text_count", len(texts)))

	vectors := make([][]float32, len(texts))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		offset := start
		batch := texts[start:end]

		wg.Add(1)
		task := func() {
			defer wg.Done()

			batchVectors, err := c.embedBatch(ctx, batch)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}

			for i, v := range batchVectors {
				vectors[offset+i] = v
			}
		}

		if err := c.pool.Submit(task); err != nil {
			// Pool rejected the task, run it inline
			task()
		}
	}

	wg.Wait()

	if firstErr != nil {
		return nil, fmt.Errorf("embed texts: %w", firstErr)
	}

	ctxzap.Debug(ctx, "texts embedded", zap.Int("vector_count", len(vectors)))

	return vectors, nil
}

// EmbedOne embeds a single text. Results are cached for the configured TTL,
// so repeated queries skip the embedding service.
func (c *Connector) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if cached, ok := c.cache.Get(key); ok {
		ctxzap.Debug(ctx, "embedding cache hit")
		return cached.([]float32), nil
	}

	vectors, err := c.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 embedding, got %d", entity.ErrEmbeddingUnavailable, len(vectors))
	}

	c.cache.Set(key, vectors[0], cache.DefaultExpiration)

	return vectors[0], nil
}

// ModelInfo reports the configured embedding model parameters.
func (c *Connector) ModelInfo() entity.EmbeddingModelInfo {
	return entity.EmbeddingModelInfo{
		Name:          c.config.Model,
		Dimension:     c.config.Dimension,
		MaxInputChars: c.config.MaxInputChars,
	}
}

func (c *Connector) Health(ctx context.Context) bool {
	_, err := c.embedBatch(ctx, []string{"ping"})
	return err == nil
}

func (c *Connector) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	truncated := make([]string, len(texts))
	for i, text := range texts {
		truncated[i] = truncate(text, c.config.MaxInputChars)
	}

	req := &embedRequest{
		Model: c.config.Model,
		Input: truncated,
	}

	resp, err := retry.DoWithData(func() (*embedResponse, error) {
		var out embedResponse
		if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.EmbedEndpoint, req, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}, append(c.config.Retry.ToRetryOptions(), retry.Context(ctx), retry.LastErrorOnly(true))...)
	if err != nil {
		ctxzap.Error(ctx, "embedding request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", entity.ErrEmbeddingUnavailable, err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", entity.ErrEmbeddingUnavailable, len(texts), len(resp.Embeddings))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, raw := range resp.Embeddings {
		if c.config.Dimension > 0 && len(raw) != c.config.Dimension {
			return nil, fmt.Errorf("%w: got vector of dimension %d, want %d", entity.ErrDimensionMismatch, len(raw), c.config.Dimension)
		}
		vectors[i] = normalize(raw)
	}

	return vectors, nil
}

// normalize scales a vector to unit length. Zero vectors pass through
// unchanged.
func normalize(raw []float64) []float32 {
	var sum float64
	for _, v := range raw {
		sum += v * v
	}

	norm := math.Sqrt(sum)
	vector := make([]float32, len(raw))
	if norm == 0 {
		for i, v := range raw {
			vector[i] = float32(v)
		}
		return vector
	}

	for i, v := range raw {
		vector[i] = float32(v / norm)
	}

	return vector
}

func truncate(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	return text[:maxChars]
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
