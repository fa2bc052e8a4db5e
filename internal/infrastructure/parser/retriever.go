package parser

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"ReputationScanner/internal/config"
	"ReputationScanner/internal/domain"
	"ReputationScanner/internal/ports"
	"ReputationScanner/internal/scanner"
)

// Retriever pages through registered engines and returns ranked results.
// Provider trouble is logged and degrades to partial or empty results.
type Retriever struct {
	registry *scanner.Registry
	cfg      config.RetrievalConfig
	logger   *slog.Logger
}

var _ ports.ResultProvider = (*Retriever)(nil)

// NewRetriever binds the registry with pacing settings.
func NewRetriever(registry *scanner.Registry, cfg config.RetrievalConfig, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	return &Retriever{registry: registry, cfg: cfg, logger: logger}
}

// Retrieve returns up to q.Depth results with dense positions. progress
// receives the number of collected results against the requested depth.
func (r *Retriever) Retrieve(ctx context.Context, q domain.Query, progress func(done, total int)) []domain.RawResult {
	log := r.logger.With("engine", q.Engine, "query", q.Text)

	if q.Depth <= 0 {
		return nil
	}
	engine, err := r.registry.Resolve(q.Engine)
	if err != nil {
		log.Warn("engine unavailable", "error", err)
		return nil
	}

	var limiter *rate.Limiter
	if r.cfg.PageDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(r.cfg.PageDelay), 1)
	}

	seen := make(map[string]bool)
	var results []domain.RawResult

	for page := 0; page < r.cfg.MaxPages && len(results) < q.Depth; page++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				log.Warn("retrieval interrupted", "page", page, "error", err)
				break
			}
		}

		items, err := r.fetch(ctx, engine, scanner.PageRequest{Query: q.Text, Region: q.Region, Page: page})
		if errors.Is(err, scanner.ErrNotConfigured) {
			log.Info("engine not configured, skipping retrieval")
			return nil
		}
		if err != nil {
			log.Warn("page retrieval failed", "page", page, "collected", len(results), "error", err)
			break
		}

		for _, item := range items {
			if item.URL == "" || seen[item.URL] {
				continue
			}
			seen[item.URL] = true
			if item.Domain == "" {
				item.Domain = domain.HostOf(item.URL)
			}
			if item.Type == "" {
				item.Type = domain.ResultTypeOrganic
			}
			results = append(results, item)
		}

		if progress != nil {
			progress(min(len(results), q.Depth), q.Depth)
		}
		if len(items) < engine.PageSize() {
			break
		}
	}

	if len(results) > q.Depth {
		results = results[:q.Depth]
	}
	log.Debug("retrieval finished", "results", len(results))
	return domain.RenumberRaw(results)
}

func (r *Retriever) fetch(ctx context.Context, engine scanner.Engine, req scanner.PageRequest) ([]domain.RawResult, error) {
	callCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}
	start := time.Now()
	items, err := engine.FetchPage(callCtx, req)
	r.logger.Debug("page fetched", "engine", engine.Name(), "page", req.Page, "items", len(items), "elapsed", time.Since(start))
	return items, err
}
