package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/logger"
)

type Handler struct {
	usecase SearchUsecase
}

func NewHandler(usecase SearchUsecase) *Handler {
	return &Handler{
		usecase: usecase,
	}
}

// RegisterRoutes registers search routes on the router
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/api/search/semantic", h.SemanticSearch)
}

// SemanticSearch handles POST /api/search/semantic
func (h *Handler) SemanticSearch(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "SemanticSearch")

	var req entity.SemanticSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	resp, err := h.usecase.SemanticSearch(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Debug(ctx, "semantic search served",
		zap.String("document_id", req.DocumentID),
		zap.Int("result_count", len(resp.Results)),
	)

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Error(ctx, message)
	}
	h.respondJSON(w, status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, entity.ErrDocumentNotFound) {
		h.respondError(ctx, w, http.StatusNotFound, "resource not found", err)
	} else if errors.Is(err, entity.ErrMissingField) || errors.Is(err, entity.ErrInvalidParameter) ||
		errors.Is(err, entity.ErrDocumentNotReady) {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request", err)
	} else {
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
