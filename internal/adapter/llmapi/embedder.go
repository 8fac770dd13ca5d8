package llmapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"docqa/internal/domain"
)

// EmbedConfig carries the connection settings for an OpenAI-compatible
// embeddings endpoint.
type EmbedConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxAttempts uint
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embedder turns text into vectors through an OpenAI-compatible
// embeddings API. Bounded retry with backoff lives here, not in callers.
type Embedder struct {
	cfg    EmbedConfig
	client *http.Client
	logger *slog.Logger
}

// NewEmbedder builds an embedder on the shared pooled http.Client.
func NewEmbedder(cfg EmbedConfig, client *http.Client, logger *slog.Logger) *Embedder {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Embedder{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
}

// Encode embeds the texts in order. The result has one vector per input.
func (e *Embedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	start := time.Now()
	body, err := json.Marshal(embedRequest{Model: e.cfg.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	var vectors [][]float32
	err = retry.Do(
		func() error {
			url := e.cfg.BaseURL + "/embeddings"
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create embed request: %w", err))
			}
			req.Header.Set("Content-Type", "application/json")
			if e.cfg.APIKey != "" {
				req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
			}

			resp, err := e.client.Do(req)
			if err != nil {
				return fmt.Errorf("call embed endpoint: %w", err)
			}
			defer resp.Body.Close()

			if err := checkStatus(resp); err != nil {
				return err
			}

			var parsed embedResponse
			if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
				return fmt.Errorf("decode embed response: %w", err)
			}
			if len(parsed.Data) != len(texts) {
				return fmt.Errorf("embed response had %d vectors for %d inputs", len(parsed.Data), len(texts))
			}

			vectors = make([][]float32, len(texts))
			for _, item := range parsed.Data {
				if item.Index < 0 || item.Index >= len(vectors) {
					return fmt.Errorf("embed response index %d out of range", item.Index)
				}
				vectors[item.Index] = item.Embedding
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(e.cfg.MaxAttempts),
		retry.Delay(retryBaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}

	e.logger.Debug("texts_embedded",
		slog.Int("text_count", len(texts)),
		slog.String("model", e.cfg.Model),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return vectors, nil
}

// Version returns the embedding model name.
func (e *Embedder) Version() string {
	return e.cfg.Model
}

var _ domain.VectorEncoder = (*Embedder)(nil)
