// internal/providers/openai/client.go
// Package openai provides an Embedder and Generator backed by an
// OpenAI-compatible HTTP API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/mwiater/docqa/internal/appconfig"
	"github.com/mwiater/docqa/internal/logging"
	"github.com/mwiater/docqa/internal/providers"
	"github.com/mwiater/docqa/internal/rag"
)

// Client implements providers.Embedder and providers.Generator.
type Client struct {
	api            *gopenai.Client
	baseURL        string
	chatModel      string
	embeddingModel string
	temperature    float32
	dimension      int
	maxRetries     int
}

// New builds a client from the provider section of cfg. The embedding
// dimension is taken from the vector store so mismatches surface before
// anything is written.
func New(cfg appconfig.Config) (*Client, error) {
	key := strings.TrimSpace(cfg.Provider.APIKey)
	if key == "" {
		return nil, fmt.Errorf("%w: provider.apiKey (or OPENAI_API_KEY) is required for the openai provider", rag.ErrInvalidConfig)
	}
	baseURL := cfg.Provider.ResolvedBaseURL()

	clientCfg := gopenai.DefaultConfig(key)
	clientCfg.BaseURL = baseURL
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout()}

	return &Client{
		api:            gopenai.NewClientWithConfig(clientCfg),
		baseURL:        baseURL,
		chatModel:      cfg.Provider.ResolvedChatModel(),
		embeddingModel: cfg.Provider.ResolvedEmbeddingModel(),
		temperature:    cfg.Provider.Temperature,
		dimension:      cfg.VectorStore.VectorSize,
		maxRetries:     cfg.Provider.MaxRetries,
	}, nil
}

func (c *Client) Name() string { return "openai" }

func (c *Client) Dimension() int { return c.dimension }

// Embed returns the embedding of text. The vector length must equal Dimension().
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	req := gopenai.EmbeddingRequest{
		Input: []string{text},
		Model: gopenai.EmbeddingModel(c.embeddingModel),
	}
	logging.LogRequest("DOCQA->EMBED", c.baseURL, c.embeddingModel, map[string]any{"input_chars": len(text)})

	var resp gopenai.EmbeddingResponse
	err := providers.Do(ctx, c.maxRetries, retryable, func(ctx context.Context) error {
		var err error
		resp, err = c.api.CreateEmbeddings(ctx, req)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai embeddings: %w", rag.ErrEmbeddingProvider, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: openai embeddings: no embedding returned", rag.ErrEmbeddingProvider)
	}

	vector := resp.Data[0].Embedding
	if c.dimension > 0 && len(vector) != c.dimension {
		return nil, fmt.Errorf("%w: %w: model %s returned %d values, expected %d", rag.ErrEmbeddingProvider, rag.ErrDimensionMismatch, c.embeddingModel, len(vector), c.dimension)
	}
	logging.LogRequest("EMBED->DOCQA", c.baseURL, c.embeddingModel, map[string]any{"dimension": len(vector), "prompt_tokens": resp.Usage.PromptTokens})
	return vector, nil
}

// Generate asks the chat model to answer question from contextText only.
func (c *Client) Generate(ctx context.Context, contextText, question string) (string, error) {
	req := gopenai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []gopenai.ChatCompletionMessage{
			{Role: gopenai.ChatMessageRoleSystem, Content: providers.GroundingSystemPrompt},
			{Role: gopenai.ChatMessageRoleUser, Content: providers.BuildPrompt(contextText, question)},
		},
		Temperature: c.temperature,
	}
	logging.LogRequest("DOCQA->LLM", c.baseURL, c.chatModel, req)

	var resp gopenai.ChatCompletionResponse
	err := providers.Do(ctx, c.maxRetries, retryable, func(ctx context.Context) error {
		var err error
		resp, err = c.api.CreateChatCompletion(ctx, req)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%w: openai chat completion: %w", rag.ErrGenerationProvider, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai chat completion: no choices returned", rag.ErrGenerationProvider)
	}
	logging.LogRequest("LLM->DOCQA", c.baseURL, c.chatModel, map[string]any{
		"finish_reason":     resp.Choices[0].FinishReason,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
	})
	return resp.Choices[0].Message.Content, nil
}

func retryable(err error) bool {
	var apiErr *gopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *gopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return providers.Retryable(err)
}
