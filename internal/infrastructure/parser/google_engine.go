package parser

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"ReputationScanner/internal/config"
	"ReputationScanner/internal/domain"
	"ReputationScanner/internal/scanner"
)

const googlePageSize = 10

// GoogleEngine queries Google Programmable Search (Custom Search JSON API).
type GoogleEngine struct {
	svc *customsearch.Service
	cx  string
}

var _ scanner.Engine = (*GoogleEngine)(nil)

// NewGoogleEngine builds the engine. Without credentials the engine stays
// registered and reports scanner.ErrNotConfigured on every page.
func NewGoogleEngine(ctx context.Context, cfg config.GoogleConfig, opts ...option.ClientOption) (*GoogleEngine, error) {
	engine := &GoogleEngine{cx: cfg.CX}
	if cfg.APIKey == "" || cfg.CX == "" {
		return engine, nil
	}

	opts = append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	engine.svc = svc
	return engine, nil
}

// Name identifies the engine inside the registry.
func (g *GoogleEngine) Name() string {
	return "google"
}

// PageSize is the API maximum per request.
func (g *GoogleEngine) PageSize() int {
	return googlePageSize
}

// FetchPage requests results starting at Page*10+1.
func (g *GoogleEngine) FetchPage(ctx context.Context, req scanner.PageRequest) ([]domain.RawResult, error) {
	if g.svc == nil {
		return nil, fmt.Errorf("google: %w", scanner.ErrNotConfigured)
	}

	call := g.svc.Cse.List().Cx(g.cx).Q(req.Query).Num(googlePageSize).Start(int64(req.Page*googlePageSize + 1))
	if req.Region != "" {
		call = call.Gl(strings.ToLower(req.Region))
	}
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("google search: %w", err)
	}

	results := make([]domain.RawResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Link == "" {
			continue
		}
		host := strings.TrimPrefix(strings.ToLower(item.DisplayLink), "www.")
		if host == "" {
			host = domain.HostOf(item.Link)
		}
		results = append(results, domain.RawResult{
			Position: len(results) + 1,
			URL:      item.Link,
			Title:    collapseSpace(item.Title),
			Snippet:  collapseSpace(item.Snippet),
			Domain:   host,
			Type:     domain.ResultTypeOrganic,
		})
	}
	return results, nil
}
