package entity

// ChatRequest is one conversation turn received from the transport.
type ChatRequest struct {
	DocumentID string  `json:"document_id"`
	Message    string  `json:"message"`
	SessionID  *string `json:"session_id,omitempty"`
}

// ChatAnswer is the non-streaming response for one turn.
type ChatAnswer struct {
	Answer        string         `json:"answer"`
	ContextChunks []ContextChunk `json:"context_chunks"`
	SessionID     string         `json:"session_id"`
}

// UpdateSessionTitleRequest renames a chat session.
type UpdateSessionTitleRequest struct {
	Title string `json:"title"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SessionWithMessages is a session together with its ordered message log.
type SessionWithMessages struct {
	ChatSession
	Messages []*ChatMessage `json:"messages"`
}

type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatDOCX     ResultFormat = "docx"
	FormatPDF      ResultFormat = "pdf"
)
