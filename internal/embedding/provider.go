package embedding

import (
	"fmt"

	"github.com/Harshitk-cp/mnemo/internal/domain"
	"github.com/openai/openai-go/option"
)

const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Options configures the client returned by NewClient. Zero values fall back
// to the provider defaults.
type Options struct {
	APIKey     string
	Dimensions int
	BaseURL    string
}

// NewClient builds the embedding client for provider.
func NewClient(provider string, opts Options) (domain.EmbeddingClient, error) {
	if opts.Dimensions < 0 {
		return nil, fmt.Errorf("embedding dimensions must be positive, got %d", opts.Dimensions)
	}

	switch provider {
	case ProviderOpenAI:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the %s embedding provider", provider)
		}
		var extra []option.RequestOption
		if opts.BaseURL != "" {
			extra = append(extra, option.WithBaseURL(opts.BaseURL))
		}
		return NewOpenAIClient(opts.APIKey, opts.Dimensions, extra...), nil
	case ProviderMock:
		m := NewMockClient()
		if opts.Dimensions > 0 {
			m.dimensions = opts.Dimensions
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q (want %s or %s)", provider, ProviderOpenAI, ProviderMock)
	}
}

// Dimensions returns the default vector width of provider.
func Dimensions(provider string) int {
	if provider == ProviderOpenAI {
		return OpenAIDimensions
	}
	return MockDimensions
}
