package entity

import (
	"fmt"
	"time"
)

type DocumentStatus string

// Document status represents the current state of the ingestion pipeline
const (
	DocumentStatusPending    DocumentStatus = "pending"    // Uploaded, waiting for processing
	DocumentStatusProcessing DocumentStatus = "processing" // Chunking and embedding in progress
	DocumentStatusCompleted  DocumentStatus = "completed"  // Indexed and ready for chat
	DocumentStatusFailed     DocumentStatus = "failed"     // Processing failed, see ErrorMessage
)

func (ds DocumentStatus) Validate() error {
	switch ds {
	case DocumentStatusPending, DocumentStatusProcessing, DocumentStatusCompleted, DocumentStatusFailed:
		return nil
	default:
		return fmt.Errorf("unknown document status: %s", ds)
	}
}

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

type Document struct {
	ID               string         `json:"id"`
	Filename         string         `json:"filename"`
	OriginalFilename string         `json:"original_filename"`
	FilePath         string         `json:"-"`
	FileSize         int64          `json:"file_size"`
	FileType         string         `json:"file_type"`
	Status           DocumentStatus `json:"processing_status"`
	TotalChunks      int            `json:"total_chunks"`
	ErrorMessage     *string        `json:"error_message,omitempty"`
	UploadedAt       time.Time      `json:"upload_date"`
}

type ChatSession struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ContextChunk is a retrieved passage attached to an assistant message.
type ContextChunk struct {
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	ChunkIndex int     `json:"chunk_index"`
}

type ChatMessage struct {
	ID            string         `json:"id"`
	SessionID     string         `json:"session_id"`
	Role          MessageRole    `json:"role"`
	Content       string         `json:"content"`
	ContextChunks []ContextChunk `json:"context_chunks,omitempty"`
	CreatedAt     time.Time      `json:"timestamp"`
}

// SearchResultMetadata describes where a retrieved chunk came from.
type SearchResultMetadata struct {
	DocumentID  string `json:"document_id"`
	ChunkIndex  int    `json:"chunk_index"`
	ChunkLength int    `json:"chunk_length"`
}

// SearchResult is one ranked retrieval hit. It is never persisted.
type SearchResult struct {
	Content  string               `json:"content"`
	Score    float64              `json:"score"`
	Metadata SearchResultMetadata `json:"metadata"`
}

// EmbeddingModelInfo is introspection metadata reported by the embedding provider.
type EmbeddingModelInfo struct {
	Name          string `json:"model_name"`
	Dimension     int    `json:"embedding_dimension"`
	MaxInputChars int    `json:"max_input_chars"`
}

// Fragment is one piece of a generated answer. In streaming mode fragments
// arrive incrementally; in non-streaming mode a single fragment carries the
// whole answer. Failed marks an inline error message emitted instead of
// aborting the stream.
type Fragment struct {
	Text   string
	Failed bool
}
