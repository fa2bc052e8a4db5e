// Package classify wraps an optional model-backed classifier with a mandatory
// fallback to the lexical classifier.
package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"ReputationScanner/internal/domain"
	"ReputationScanner/internal/sentiment"
)

const (
	unconfiguredConfidence = 0.5
	unparseableConfidence  = 0.5
	failedConfidence       = 0.3
	localPrefix            = "local analysis"
)

var (
	// ErrUnparseable marks a backend reply that could not be read as a verdict.
	ErrUnparseable = errors.New("unparseable classifier response")
	// ErrNotConfigured marks a backend without the credentials it needs.
	ErrNotConfigured = errors.New("classifier backend not configured")
)

// Result is the adapter contract shared by every classifier.
type Result struct {
	Sentiment   domain.Sentiment `json:"sentiment"`
	Confidence  float64          `json:"confidence"`
	Explanation string           `json:"explanation"`
}

// Backend is a higher-fidelity classifier, usually a remote model.
type Backend interface {
	Name() string
	Classify(ctx context.Context, title, snippet, url string) (Result, error)
}

// Options tune how the service talks to its backend.
type Options struct {
	// Timeout bounds one backend call.
	Timeout time.Duration
	// Delay is the pause between two backend calls in a batch.
	Delay time.Duration
}

// Service classifies results through the backend when present and the lexical
// classifier otherwise. It never returns an error.
type Service struct {
	backend Backend
	lexical *sentiment.Classifier
	opts    Options
	logger  *slog.Logger
}

// NewService builds a service; backend may be nil.
func NewService(backend Backend, lexical *sentiment.Classifier, opts Options, logger *slog.Logger) *Service {
	if lexical == nil {
		lexical = sentiment.NewDefault()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{backend: backend, lexical: lexical, opts: opts, logger: logger}
}

// Backend returns the configured backend or nil.
func (s *Service) Backend() Backend {
	return s.backend
}

// Close releases the backend when it holds resources.
func (s *Service) Close() error {
	if closer, ok := s.backend.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// Classify applies the adapter contract to one item.
func (s *Service) Classify(ctx context.Context, title, snippet, url string) Result {
	return s.classify(ctx, title, snippet, url, domain.HostOf(url))
}

func (s *Service) classify(ctx context.Context, title, snippet, url, host string) Result {
	if s.backend == nil {
		return s.fallback(title, snippet, host, unconfiguredConfidence, localPrefix)
	}

	callCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	res, err := s.backend.Classify(callCtx, title, snippet, url)
	switch {
	case err == nil:
		return res
	case errors.Is(err, ErrUnparseable):
		s.logger.Warn("classifier reply unreadable, using lexical fallback", "backend", s.backend.Name(), "url", url, "error", err)
		return s.fallback(title, snippet, host, unparseableConfidence, "model reply unreadable, "+localPrefix)
	default:
		s.logger.Warn("classifier call failed, using lexical fallback", "backend", s.backend.Name(), "url", url, "error", err)
		return s.fallback(title, snippet, host, failedConfidence, fmt.Sprintf("model error (%v), %s", err, localPrefix))
	}
}

func (s *Service) fallback(title, snippet, host string, confidence float64, prefix string) Result {
	v := s.lexical.Classify(title, snippet, host)
	explanation := prefix
	if v.Explanation != "" {
		explanation = prefix + ": " + v.Explanation
	}
	return Result{Sentiment: v.Sentiment, Confidence: confidence, Explanation: explanation}
}

// ClassifyBatch classifies items one after another. With a backend, calls are
// spaced by Options.Delay; progress receives the number of finished items.
func (s *Service) ClassifyBatch(ctx context.Context, items []domain.RawResult, progress func(done, total int)) []domain.SearchResult {
	out := make([]domain.SearchResult, len(items))

	var limiter *rate.Limiter
	if s.backend != nil && s.opts.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(s.opts.Delay), 1)
	}

	for i, item := range items {
		host := item.Domain
		if host == "" {
			host = domain.HostOf(item.URL)
		}

		var res Result
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				res = s.fallback(item.Title, item.Snippet, host, failedConfidence, fmt.Sprintf("model error (%v), %s", err, localPrefix))
			}
		}
		if res.Sentiment == "" {
			res = s.classify(ctx, item.Title, item.Snippet, item.URL, host)
		}

		out[i] = domain.FromRaw(item)
		out[i].Domain = host
		out[i].Sentiment = res.Sentiment
		out[i].Confidence = res.Confidence
		out[i].Explanation = res.Explanation

		if progress != nil {
			progress(i+1, len(items))
		}
	}
	return domain.RenumberResults(out)
}
