package ports

import (
	"context"
	"time"

	"ReputationScanner/internal/domain"
)

// ResultProvider yields ranked raw results for one engine. It never fails:
// provider trouble degrades to a partial or empty list.
type ResultProvider interface {
	Retrieve(ctx context.Context, q domain.Query, progress func(done, total int)) []domain.RawResult
}

// GraphStore persists the whole project graph with read-then-replace semantics.
type GraphStore interface {
	LoadGraph(ctx context.Context) (domain.Graph, error)
	SaveGraph(ctx context.Context, graph domain.Graph) error
}

// BatchClassifier assigns a sentiment to every retrieved result.
type BatchClassifier interface {
	ClassifyBatch(ctx context.Context, items []domain.RawResult, progress func(done, total int)) []domain.SearchResult
	Close() error
}

// ClassifierFactory builds a classifier from the configuration current at call time.
type ClassifierFactory interface {
	NewClassifier(ctx context.Context) BatchClassifier
}

// Aggregator turns a classified batch into reputation metrics.
type Aggregator interface {
	Aggregate(results []domain.SearchResult) domain.ReputationMetrics
}

// Notifier streams completion digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when periodic refreshes execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
