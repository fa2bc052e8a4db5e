package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"ReputationScanner/internal/classify"
	"ReputationScanner/internal/config"
)

// GeminiClient classifies results with Google Gemini.
type GeminiClient struct {
	client *genai.Client
	model  string
}

var _ classify.Backend = (*GeminiClient)(nil)

// NewGeminiClient creates a client; the caller must Close it.
func NewGeminiClient(ctx context.Context, cfg config.ClassifierConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", classify.ErrNotConfigured)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash-lite"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Name identifies the backend in logs.
func (c *GeminiClient) Name() string {
	return "gemini"
}

// Classify asks for a JSON verdict.
func (c *GeminiClient) Classify(ctx context.Context, title, snippet, url string) (classify.Result, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.1)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(classify.Prompt(title, snippet, url)))
	if err != nil {
		return classify.Result{}, fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return classify.Result{}, fmt.Errorf("%w: %v", classify.ErrUnparseable, err)
	}
	return classify.ParseVerdict(text)
}

// Close releases the underlying client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}
