package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	openAIModel      = openai.EmbeddingModelTextEmbedding3Small
	OpenAIDimensions = 1536

	openAITimeout    = 30 * time.Second
	openAIMaxRetries = 2
)

var (
	ErrEmptyInput  = errors.New("embedding input is empty")
	ErrRateLimited = errors.New("embedding provider rate limited the request")
)

// OpenAIClient embeds text with the OpenAI embeddings endpoint. text-embedding-3
// models accept a shorter output width, which is requested when dimensions
// differs from the model default.
type OpenAIClient struct {
	api        openai.Client
	dimensions int
}

// NewOpenAIClient builds a client for apiKey. Extra request options are applied
// after the defaults, so they can override the base URL or retry policy.
func NewOpenAIClient(apiKey string, dimensions int, opts ...option.RequestOption) *OpenAIClient {
	if dimensions <= 0 {
		dimensions = OpenAIDimensions
	}
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(openAITimeout),
		option.WithMaxRetries(openAIMaxRetries),
	}
	return &OpenAIClient{
		api:        openai.NewClient(append(base, opts...)...),
		dimensions: dimensions,
	}
}

func (c *OpenAIClient) Dimensions() int {
	return c.dimensions
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	params := openai.EmbeddingNewParams{
		Model: openAIModel,
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	}
	if c.dimensions != OpenAIDimensions {
		params.Dimensions = openai.Int(int64(c.dimensions))
	}

	resp, err := c.api.Embeddings.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
		return nil, fmt.Errorf("call embedding API: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding API returned no vectors")
	}

	raw := resp.Data[0].Embedding
	if len(raw) != c.dimensions {
		return nil, fmt.Errorf("embedding API returned %d dimensions, want %d", len(raw), c.dimensions)
	}
	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}
