package document

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/logger"
)

type Handler struct {
	usecase DocumentUsecase
	cfg     config.FileUploadConfig
}

func NewHandler(usecase DocumentUsecase, cfg config.FileUploadConfig) *Handler {
	return &Handler{
		usecase: usecase,
		cfg:     cfg,
	}
}

// RegisterRoutes registers document routes on the router
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/api/documents", func(r chi.Router) {
		r.Post("/upload", h.UploadDocument)
		r.Get("/", h.ListDocuments)
		r.Get("/{documentID}", h.GetDocument)
		r.Get("/{documentID}/status", h.GetDocumentStatus)
		r.Delete("/{documentID}", h.DeleteDocument)
	})
}

// UploadDocument handles POST /api/documents/upload
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "UploadDocument")

	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		ctxzap.Error(ctx, "failed to parse multipart form", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid form data or size too large", err)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		ctxzap.Warn(ctx, "no file provided", zap.Error(err))
		h.respondError(ctx, w, http.StatusBadRequest, "file is required", err)
		return
	}
	file.Close()

	doc, err := h.usecase.UploadDocument(ctx, fileHeader)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "document accepted",
		zap.String("document_id", doc.ID),
		zap.String("filename", doc.OriginalFilename),
	)

	h.respondJSON(w, http.StatusAccepted, doc)
}

// ListDocuments handles GET /api/documents
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListDocuments")

	documents, err := h.usecase.ListDocuments(ctx)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, documents)
}

// GetDocument handles GET /api/documents/{documentID}
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetDocument")

	documentID := chi.URLParam(r, "documentID")

	doc, err := h.usecase.GetDocument(ctx, documentID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, doc)
}

// GetDocumentStatus handles GET /api/documents/{documentID}/status. It is a
// lightweight view for ingestion polling.
func (h *Handler) GetDocumentStatus(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetDocumentStatus")

	documentID := chi.URLParam(r, "documentID")

	doc, err := h.usecase.GetDocument(ctx, documentID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	status := map[string]any{
		"document_id":  doc.ID,
		"status":       doc.Status,
		"total_chunks": doc.TotalChunks,
	}
	if doc.ErrorMessage != nil {
		status["error_message"] = *doc.ErrorMessage
	}

	h.respondJSON(w, http.StatusOK, status)
}

// DeleteDocument handles DELETE /api/documents/{documentID}
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "DeleteDocument")

	documentID := chi.URLParam(r, "documentID")

	if err := h.usecase.DeleteDocument(ctx, documentID); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "document deleted", zap.String("document_id", documentID))

	h.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "deleted",
		"message": "document and all related data removed",
	})
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
	} else if errors.Is(err, entity.ErrInvalidFile) || errors.Is(err, entity.ErrFileTooLarge) ||
		errors.Is(err, entity.ErrInvalidExtension) || errors.Is(err, entity.ErrEmptyFile) ||
		errors.Is(err, entity.ErrMissingField) {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid file", err)
	} else {
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
