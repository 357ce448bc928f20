// internal/providers/ollama/client.go
// Package ollama provides an Embedder and Generator backed by Ollama HTTP endpoints.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mwiater/docqa/internal/appconfig"
	"github.com/mwiater/docqa/internal/logging"
	"github.com/mwiater/docqa/internal/providers"
	"github.com/mwiater/docqa/internal/rag"
)

// Client implements providers.Embedder and providers.Generator using the
// Ollama /api/embeddings and /api/chat endpoints.
type Client struct {
	client         *http.Client
	baseURL        string
	chatModel      string
	embeddingModel string
	temperature    float32
	dimension      int
	maxRetries     int
}

// New constructs a Client configured with the application's request timeout.
func New(cfg appconfig.Config) *Client {
	return &Client{
		client: &http.Client{
			Timeout:   cfg.RequestTimeout(),
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		baseURL:        cfg.Provider.ResolvedBaseURL(),
		chatModel:      cfg.Provider.ResolvedChatModel(),
		embeddingModel: cfg.Provider.ResolvedEmbeddingModel(),
		temperature:    cfg.Provider.Temperature,
		dimension:      cfg.VectorStore.VectorSize,
		maxRetries:     cfg.Provider.MaxRetries,
	}
}

func (c *Client) Name() string { return "ollama" }

func (c *Client) Dimension() int { return c.dimension }

type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	TotalDuration   int64       `json:"total_duration"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
	EvalDuration    int64       `json:"eval_duration"`
}

// Embed returns the embedding of text as float32.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]any{
		"model":  c.embeddingModel,
		"prompt": text,
	}
	var out embeddingResponse
	if err := c.post(ctx, "/api/embeddings", c.embeddingModel, payload, &out); err != nil {
		return nil, fmt.Errorf("%w: ollama embeddings: %w", rag.ErrEmbeddingProvider, err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("%w: ollama embeddings: no embedding returned", rag.ErrEmbeddingProvider)
	}
	if c.dimension > 0 && len(out.Embedding) != c.dimension {
		return nil, fmt.Errorf("%w: %w: model %s returned %d values, expected %d", rag.ErrEmbeddingProvider, rag.ErrDimensionMismatch, c.embeddingModel, len(out.Embedding), c.dimension)
	}

	vector := make([]float32, len(out.Embedding))
	for i, v := range out.Embedding {
		vector[i] = float32(v)
	}
	return vector, nil
}

// Generate issues a non-streaming chat request with the grounding prompt.
func (c *Client) Generate(ctx context.Context, contextText, question string) (string, error) {
	payload := map[string]any{
		"model": c.chatModel,
		"messages": []chatMessage{
			{Role: "system", Content: providers.GroundingSystemPrompt},
			{Role: "user", Content: providers.BuildPrompt(contextText, question)},
		},
		"options": map[string]any{"temperature": c.temperature},
		"stream":  false,
	}
	var out chatResponse
	if err := c.post(ctx, "/api/chat", c.chatModel, payload, &out); err != nil {
		return "", fmt.Errorf("%w: ollama chat: %w", rag.ErrGenerationProvider, err)
	}
	if !out.Done && out.Message.Content == "" {
		return "", fmt.Errorf("%w: ollama chat: empty response", rag.ErrGenerationProvider)
	}
	if out.EvalDuration > 0 {
		tps := float64(out.EvalCount) / (float64(out.EvalDuration) / float64(time.Second))
		logging.LogDebug("[OLLAMA] %s prompt_tokens=%d eval_tokens=%d tokens_per_sec=%.1f", c.chatModel, out.PromptEvalCount, out.EvalCount, tps)
	}
	return out.Message.Content, nil
}

// post sends payload as JSON and decodes a 2xx response into out, retrying
// per maxRetries.
func (c *Client) post(ctx context.Context, path, model string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	hostID := hostIdentifier(c.baseURL)
	endpoint := c.baseURL + path

	return providers.Do(ctx, c.maxRetries, providers.Retryable, func(ctx context.Context) error {
		logging.LogRequest("DOCQA->LLM", hostID, model, body)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		logging.LogRequest("LLM->DOCQA", hostID, model, respBody)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &providers.StatusError{Code: resp.StatusCode, Body: providers.Truncate(strings.TrimSpace(string(respBody)), 200)}
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
		return nil
	})
}

func hostIdentifier(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return baseURL
	}
	return u.Host
}
