package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ReputationScanner/internal/classify"
	"ReputationScanner/internal/config"
)

// Client talks to an HTTP inference service exposing POST /classify.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ classify.Backend = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(cfg config.ClassifierConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("inference: %w", classify.ErrNotConfigured)
	}
	return &Client{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Name identifies the backend in logs.
func (c *Client) Name() string {
	return "inference"
}

// Classify sends the result fields and decodes the service verdict.
func (c *Client) Classify(ctx context.Context, title, snippet, url string) (classify.Result, error) {
	payload := map[string]any{
		"title":   title,
		"snippet": snippet,
		"url":     url,
	}

	var raw json.RawMessage
	if err := c.post(ctx, "/classify", payload, &raw); err != nil {
		return classify.Result{}, err
	}
	return classify.ParseVerdict(string(raw))
}

func (c *Client) post(ctx context.Context, path string, payload any, v *json.RawMessage) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("%w: decode response: %v", classify.ErrUnparseable, err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
