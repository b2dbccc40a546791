package llm

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/entity"
)

const mockAnswer = "Based on the provided context, the document covers the requested topic. This is a mock answer produced without calling a language model."

// MockConnector is a generation stub for local development and tests.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

// GenerateStream emits the mock answer word by word.
func (m *MockConnector) GenerateStream(ctx context.Context, prompt string) (<-chan entity.Fragment, error) {
	ctxzap.Debug(ctx, "[MOCK] streaming generation", zap.Int("prompt_length", len(prompt)))

	fragments := make(chan entity.Fragment)

	go func() {
		defer close(fragments)

		words := strings.Fields(mockAnswer)
		for i, word := range words {
			text := word
			if i < len(words)-1 {
				text += " "
			}

			select {
			case fragments <- entity.Fragment{Text: text}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return fragments, nil
}

func (m *MockConnector) Generate(ctx context.Context, prompt string) (string, error) {
	ctxzap.Debug(ctx, "[MOCK] generating response", zap.Int("prompt_length", len(prompt)))

	if strings.Contains(prompt, "title") {
		return "Mock Document Discussion", nil
	}

	return mockAnswer, nil
}

func (m *MockConnector) Health(ctx context.Context) bool {
	return true
}
