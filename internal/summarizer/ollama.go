package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/tidwall/gjson"
)

const maxGenerateResponseBytes = 4 << 20

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

// OllamaGenerator talks to an Ollama-style /api/generate endpoint without
// streaming.
type OllamaGenerator struct {
	client      *http.Client
	endpoint    string
	model       string
	temperature float64
	log         *slog.Logger
}

// NewOllamaGenerator expects client to carry the generation timeout.
func NewOllamaGenerator(
	client *http.Client,
	endpoint string,
	model string,
	temperature float64,
	log *slog.Logger,
) *OllamaGenerator {
	return &OllamaGenerator{
		client:      client,
		endpoint:    endpoint,
		model:       model,
		temperature: temperature,
		log:         log,
	}
}

// Generate returns "" without error when the reply lacks a "response"
// field.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(ollamaRequest{
		Model:   g.model,
		Prompt:  prompt,
		Stream:  false,
		Options: ollamaOptions{Temperature: g.temperature},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			g.log.WarnContext(ctx, "Failed to close response body",
				"error", closeErr,
				"endpoint", g.endpoint)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGenerateResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if !gjson.ValidBytes(body) {
		return "", errors.New("response is not valid JSON")
	}

	return gjson.GetBytes(body, "response").String(), nil
}
