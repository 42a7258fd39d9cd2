package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

// OpenAIGenerator calls the Responses API of an OpenAI-compatible backend.
type OpenAIGenerator struct {
	client      openai.Client
	model       string
	temperature float64
}

// NewOpenAIGenerator disables the SDK's own retries: a failed generation
// is final for the request.
func NewOpenAIGenerator(
	client *http.Client,
	baseURL string,
	apiKey string,
	model string,
	temperature float64,
) *OpenAIGenerator {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(client),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIGenerator{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: temperature,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:       g.model,
		Temperature: openai.Float(g.temperature),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(prompt),
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &StatusError{StatusCode: apiErr.StatusCode, Body: apiErr.RawJSON()}
		}

		return "", fmt.Errorf("do request: %w", err)
	}

	return resp.OutputText(), nil
}
