package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/integration/common"
	pkghttp "github.com/futig/docqa-backend/pkg/http"
)

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Connector talks to an Ollama-compatible text generation service.
type Connector struct {
	config    config.LLMConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.LLMConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// GenerateStream streams the model response for a prompt as it is produced.
// The returned channel is closed when the stream ends. A failure after the
// stream has started is reported in-band as a fragment with Failed set, not
// as an error return.
func (c *Connector) GenerateStream(ctx context.Context, prompt string) (<-chan entity.Fragment, error) {
	ctxzap.Debug(ctx, "starting generation stream", zap.Int("prompt_length", len(prompt)))

	req := &generateRequest{
		Model:   c.config.Model,
		Prompt:  prompt,
		Stream:  true,
		Options: generateOptions{Temperature: c.config.Temperature},
	}

	body, err := c.connector.DoStreamRequest(ctx, http.MethodPost, c.config.GenerateEndpoint, req)
	if err != nil {
		ctxzap.Error(ctx, "failed to start generation stream", zap.Error(err))
		return nil, fmt.Errorf("start generation stream: %w", err)
	}

	fragments := make(chan entity.Fragment)

	go func() {
		defer close(fragments)
		defer body.Close()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var chunk generateResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				ctxzap.Warn(ctx, "malformed stream line", zap.Error(err))
				continue
			}

			if chunk.Response != "" {
				select {
				case fragments <- entity.Fragment{Text: chunk.Response}:
				case <-ctx.Done():
					return
				}
			}

			if chunk.Done {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			ctxzap.Error(ctx, "generation stream interrupted", zap.Error(err))
			select {
			case fragments <- entity.Fragment{
				Text:   fmt.Sprintf("Error generating response: %v", err),
				Failed: true,
			}:
			case <-ctx.Done():
			}
		}
	}()

	return fragments, nil
}

// Generate returns the full model response for a prompt in one call.
func (c *Connector) Generate(ctx context.Context, prompt string) (string, error) {
	ctxzap.Debug(ctx, "generating response", zap.Int("prompt_length", len(prompt)))

	req := &generateRequest{
		Model:   c.config.Model,
		Prompt:  prompt,
		Stream:  false,
		Options: generateOptions{Temperature: c.config.Temperature},
	}

	resp, err := retry.DoWithData(func() (*generateResponse, error) {
		var out generateResponse
		if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.GenerateEndpoint, req, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}, append(c.config.Retry.ToRetryOptions(), retry.Context(ctx), retry.LastErrorOnly(true))...)
	if err != nil {
		ctxzap.Error(ctx, "generation request failed", zap.Error(err))
		return "", fmt.Errorf("generate response: %w", err)
	}

	ctxzap.Debug(ctx, "response generated", zap.Int("response_length", len(resp.Response)))

	return resp.Response, nil
}

func (c *Connector) Health(ctx context.Context) bool {
	return c.connector.DoRequest(ctx, http.MethodGet, "/", nil, nil) == nil
}
