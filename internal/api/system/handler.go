package system

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/vectorstore"
)

type EmbeddingConnector interface {
	ModelInfo() entity.EmbeddingModelInfo
	Health(ctx context.Context) bool
}

type LLMConnector interface {
	Health(ctx context.Context) bool
}

// Handler serves service health and runtime info endpoints
type Handler struct {
	db           *pgxpool.Pool
	index        vectorstore.VectorIndex
	embedder     EmbeddingConnector
	llm          LLMConnector
	retrievalCfg config.RetrievalConfig
	uploadCfg    config.FileUploadConfig
}

func NewHandler(
	db *pgxpool.Pool,
	index vectorstore.VectorIndex,
	embedder EmbeddingConnector,
	llm LLMConnector,
	retrievalCfg config.RetrievalConfig,
	uploadCfg config.FileUploadConfig,
) *Handler {
	return &Handler{
		db:           db,
		index:        index,
		embedder:     embedder,
		llm:          llm,
		retrievalCfg: retrievalCfg,
		uploadCfg:    uploadCfg,
	}
}

// RegisterRoutes registers system routes on the router
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/health", h.Health)
	r.Get("/api/info", h.Info)
}

// Health handles GET /health. The service reports healthy as long as it is
// up; dependency states are included for diagnostics.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]bool{
		"database":     h.db.Ping(ctx) == nil,
		"vector_index": h.index.Health(ctx),
		"embedding":    h.embedder.Health(ctx),
		"llm":          h.llm.Health(ctx),
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"checks": checks,
	})
}

// Info handles GET /api/info
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := h.index.Count(ctx)
	if err != nil {
		count = -1
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"service":         "docqa-backend",
		"embedding_model": h.embedder.ModelInfo(),
		"indexed_chunks":  count,
		"chunk_size":      h.retrievalCfg.ChunkSize,
		"chunk_overlap":   h.retrievalCfg.ChunkOverlap,
		"top_k":           h.retrievalCfg.TopK,
		"max_file_size":   h.uploadCfg.MaxFileSize,
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
