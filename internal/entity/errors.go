package entity

import "errors"

// Domain errors
var (
	// Document errors
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentNotReady = errors.New("document is not ready for querying")
	ErrNoTextExtracted  = errors.New("no text could be extracted from the document")
	ErrNoChunksCreated  = errors.New("no valid chunks could be created from the document")

	// File errors
	ErrInvalidFile      = errors.New("invalid file")
	ErrFileTooLarge     = errors.New("file too large")
	ErrEmptyFile        = errors.New("file is empty")
	ErrInvalidExtension = errors.New("invalid file extension")

	// Session errors
	ErrSessionNotFound = errors.New("chat session not found")

	// Validation errors
	ErrEmptyQuestion        = errors.New("message cannot be empty")
	ErrChunkVectorMismatch  = errors.New("number of chunks must match number of vectors")
	ErrDimensionMismatch    = errors.New("vector dimension mismatch")
	ErrMissingField         = errors.New("required field is missing")
	ErrInvalidParameter     = errors.New("invalid parameter")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrUnsupportedFormat    = errors.New("unsupported export format")
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")
)
