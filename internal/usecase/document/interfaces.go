package document

import (
	"context"
)

type EmbeddingConnector interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}

type TextExtractor interface {
	Extract(path, fileType string) (string, error)
}
