package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	pkgRetry "github.com/futig/docqa-backend/internal/pkg/retry"
)

func newTestConnector(t *testing.T, serverURL string) *Connector {
	t.Helper()

	cfg := config.LLMConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{
			RequestTimeout:        5 * time.Second,
			ConnTimeout:           5 * time.Second,
			KeepAlive:             5 * time.Second,
			IdleConnTimeout:       5 * time.Second,
			ResponseHeaderTimeout: 5 * time.Second,
			Url:                   serverURL,
		},
		GenerateEndpoint: "/api/generate",
		Model:            "test-model",
		Temperature:      0.7,
		Retry: pkgRetry.RetryConfig{
			Attempts: 1,
			Delay:    time.Millisecond,
			MaxDelay: time.Millisecond,
		},
	}

	return NewConnector(cfg, zap.NewNop())
}

func TestGenerateStreamEmitsFragmentsInOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Write([]byte(`{"response":"Hello ","done":false}` + "\n"))
		w.Write([]byte(`{"response":"world","done":false}` + "\n"))
		w.Write([]byte(`{"response":"","done":true}` + "\n"))
	}))
	defer server.Close()

	connector := newTestConnector(t, server.URL)

	fragments, err := connector.GenerateStream(context.Background(), "say hello")
	require.NoError(t, err)

	var got []string
	for fragment := range fragments {
		require.False(t, fragment.Failed)
		got = append(got, fragment.Text)
	}

	assert.Equal(t, []string{"Hello ", "world"}, got)
}

func TestGenerateStreamReportsMidStreamFailureInline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Write([]byte(`{"response":"partial ","done":false}` + "\n"))
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	}))
	defer server.Close()

	connector := newTestConnector(t, server.URL)

	fragments, err := connector.GenerateStream(context.Background(), "say hello")
	require.NoError(t, err)

	var got []entity.Fragment
	for fragment := range fragments {
		got = append(got, fragment)
	}

	require.Len(t, got, 2)
	assert.Equal(t, "partial ", got[0].Text)
	assert.True(t, got[1].Failed)
	assert.Contains(t, got[1].Text, "Error generating response:")
}

func TestGenerateStreamErrorsBeforeFirstByte(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	connector := newTestConnector(t, server.URL)

	_, err := connector.GenerateStream(context.Background(), "say hello")
	assert.Error(t, err)
}

func TestGenerateReturnsFullResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"full answer","done":true}`))
	}))
	defer server.Close()

	connector := newTestConnector(t, server.URL)

	answer, err := connector.Generate(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, "full answer", answer)
}

func TestMockGenerateStreamReassemblesAnswer(t *testing.T) {
	mock := NewMockConnector(zap.NewNop())

	fragments, err := mock.GenerateStream(context.Background(), "anything")
	require.NoError(t, err)

	var full string
	for fragment := range fragments {
		full += fragment.Text
	}

	answer, err := mock.Generate(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, answer, full)
}
