package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaGenerator implements Generator for local models via the Ollama API.
type OllamaGenerator struct {
	client *api.Client
	model  string
}

// NewOllamaGenerator creates an Ollama-backed generator. An empty baseURL
// defaults to the local daemon.
func NewOllamaGenerator(baseURL, model string) *OllamaGenerator {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		parsed, _ = url.Parse("http://localhost:11434")
	}
	httpClient := &http.Client{
		Timeout: 2 * time.Minute, // local inference can be slow
	}
	return &OllamaGenerator{
		client: api.NewClient(parsed, httpClient),
		model:  model,
	}
}

// ID returns the provider identifier.
func (g *OllamaGenerator) ID() string { return "ollama" }

// Generate runs a single non-streaming completion against the local daemon.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	var sb strings.Builder
	err := g.client.Generate(ctx, &api.GenerateRequest{
		Model:  g.model,
		Prompt: prompt,
		Stream: &stream,
	}, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("ollama: empty response")
	}
	return text, nil
}
