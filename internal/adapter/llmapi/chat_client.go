package llmapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"docqa/internal/domain"
)

// ChatConfig carries the connection settings for an OpenAI-compatible
// chat-completions endpoint.
type ChatConfig struct {
	BaseURL           string
	APIKey            string
	Model             string
	RequestsPerSecond float64
	MaxAttempts       uint
}

const (
	defaultMaxAttempts = 3
	defaultRPS         = 5
	retryBaseDelay     = 200 * time.Millisecond
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// ChatClient calls an OpenAI-compatible chat-completions API. It owns the
// resilience concerns of the collaborator boundary: request timeout via
// the injected http.Client, client-side rate limiting, and bounded retry
// with backoff. Callers above this adapter never retry.
type ChatClient struct {
	cfg     ChatConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewChatClient builds a chat client on the shared pooled http.Client.
func NewChatClient(cfg ChatConfig, client *http.Client, logger *slog.Logger) *ChatClient {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRPS
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &ChatClient{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger,
	}
}

// Complete sends the conversation and returns the assistant's answer.
func (c *ChatClient) Complete(ctx context.Context, messages []domain.Message, params domain.GenerationParams) (string, error) {
	body, err := json.Marshal(c.buildRequest(messages, params, false))
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	var answer string
	err = retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.post(ctx, body)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if err := checkStatus(resp); err != nil {
				return err
			}

			var parsed chatResponse
			if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
				return fmt.Errorf("decode chat response: %w", err)
			}
			if len(parsed.Choices) == 0 {
				return fmt.Errorf("chat response contained no choices")
			}
			answer = parsed.Choices[0].Message.Content
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.MaxAttempts),
		retry.Delay(retryBaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	c.logger.Debug("chat_completed",
		slog.String("model", c.cfg.Model),
		slog.Int("answer_chars", len(answer)))

	return answer, nil
}

// CompleteStream sends the conversation with streaming enabled and
// returns the assistant's answer as SSE content fragments. The fragment
// channel closes when the stream finishes; a transport failure mid-stream
// arrives on the error channel.
func (c *ChatClient) CompleteStream(ctx context.Context, messages []domain.Message, params domain.GenerationParams) (<-chan string, <-chan error, error) {
	body, err := json.Marshal(c.buildRequest(messages, params, true))
	if err != nil {
		return nil, nil, fmt.Errorf("marshal chat request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	resp, err := c.post(ctx, body)
	if err != nil {
		return nil, nil, fmt.Errorf("chat stream: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, nil, fmt.Errorf("chat stream: %w", err)
	}

	fragments := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(fragments)
		defer close(errs)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				return
			}

			var chunk chatStreamChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				c.logger.Warn("chat_stream_bad_chunk", slog.String("error", err.Error()))
				continue
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}

			select {
			case fragments <- chunk.Choices[0].Delta.Content:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- fmt.Errorf("read chat stream: %w", err)
		}
	}()

	return fragments, errs, nil
}

// Version returns the wrapped model name.
func (c *ChatClient) Version() string {
	return c.cfg.Model
}

func (c *ChatClient) buildRequest(messages []domain.Message, params domain.GenerationParams, stream bool) chatRequest {
	req := chatRequest{
		Model:       c.cfg.Model,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
		Stream:      stream,
		Messages:    make([]chatMessage, len(messages)),
	}
	for i, m := range messages {
		req.Messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}
	return req
}

func (c *ChatClient) post(ctx context.Context, body []byte) (*http.Response, error) {
	url := c.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("create chat request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call chat endpoint: %w", err)
	}
	return resp, nil
}

// checkStatus converts a non-200 response into an error, marking client
// errors unrecoverable so they are not retried.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	err := fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, string(body))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return retry.Unrecoverable(err)
	}
	return err
}

var _ domain.LLMClient = (*ChatClient)(nil)
