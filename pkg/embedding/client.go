// Package embedding calls an OpenAI-compatible embedding endpoint. The
// default configuration targets Upstage Solar embeddings; any provider
// speaking the same wire format works via WithBaseURL.
package embedding

import (
	"context"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.upstage.ai/v1/solar"
	defaultModel   = "embedding-query"
)

// Client produces dense vectors for text.
type Client interface {
	// Embed returns one vector per input, in input order.
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// Option configures the client.
type Option func(*apiClient)

// WithBaseURL points the client at a different OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *apiClient) {
		c.baseURL = url
	}
}

// WithModel overrides the default embedding model.
func WithModel(model string) Option {
	return func(c *apiClient) {
		c.model = model
	}
}

// WithRateLimit caps request throughput. Zero or negative rps disables the
// limiter.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *apiClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

type apiClient struct {
	baseURL string
	model   string
	limiter *rate.Limiter
	api     *openai.Client
}

// NewClient creates an embedding client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &apiClient{
		baseURL: defaultBaseURL,
		model:   defaultModel,
	}
	for _, o := range opts {
		o(c)
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = c.baseURL
	c.api = openai.NewClientWithConfig(cfg)
	return c
}

func (c *apiClient) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "embedding: rate limiter")
		}
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.model),
		Input: inputs,
	})
	if err != nil {
		return nil, eris.Wrap(err, "embedding: create embeddings")
	}
	if len(resp.Data) != len(inputs) {
		return nil, eris.Errorf("embedding: got %d vectors for %d inputs", len(resp.Data), len(inputs))
	}

	out := make([][]float32, len(inputs))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, eris.Errorf("embedding: response index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
