package llmapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"docqa/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testChatClient(url string) *ChatClient {
	return NewChatClient(ChatConfig{
		BaseURL:           url,
		APIKey:            "test-key",
		Model:             "test-model",
		RequestsPerSecond: 1000,
		MaxAttempts:       3,
	}, &http.Client{}, testLogger())
}

func TestChatComplete_ReturnsAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"model":"test-model"`)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello from the model"}}]}`))
	}))
	defer server.Close()

	client := testChatClient(server.URL)
	answer, err := client.Complete(context.Background(),
		[]domain.Message{{Role: "user", Content: "hi"}},
		domain.GenerationParams{Temperature: 0.7, MaxTokens: 128})

	require.NoError(t, err)
	assert.Equal(t, "hello from the model", answer)
}

func TestChatComplete_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"recovered"}}]}`))
	}))
	defer server.Close()

	client := testChatClient(server.URL)
	answer, err := client.Complete(context.Background(),
		[]domain.Message{{Role: "user", Content: "hi"}}, domain.GenerationParams{})

	require.NoError(t, err)
	assert.Equal(t, "recovered", answer)
	assert.Equal(t, int32(2), calls.Load())
}

func TestChatComplete_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := testChatClient(server.URL)
	_, err := client.Complete(context.Background(),
		[]domain.Message{{Role: "user", Content: "hi"}}, domain.GenerationParams{})

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestChatCompleteStream_ParsesSSEFragments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hel\"}}]}\n\n")
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := testChatClient(server.URL)
	fragments, errs, err := client.CompleteStream(context.Background(),
		[]domain.Message{{Role: "user", Content: "hi"}}, domain.GenerationParams{})
	require.NoError(t, err)

	var answer string
	for fragment := range fragments {
		answer += fragment
	}
	assert.Equal(t, "hello", answer)
	assert.NoError(t, <-errs)
}

func TestChatCompleteStream_SurfacesHTTPErrorBeforeStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := testChatClient(server.URL)
	_, _, err := client.CompleteStream(context.Background(),
		[]domain.Message{{Role: "user", Content: "hi"}}, domain.GenerationParams{})

	require.Error(t, err)
}
