package usecase

import (
	"context"
	"fmt"

	"ReputationScanner/internal/domain"
	"ReputationScanner/internal/ports"
)

const overrideExplanation = "manual override"

// OverrideService applies manual sentiment corrections to stored parsings.
type OverrideService struct {
	graph      *GraphEditor
	aggregator ports.Aggregator
}

// NewOverrideService wires the graph editor with the aggregator used for recomputation.
func NewOverrideService(graph *GraphEditor, aggregator ports.Aggregator) *OverrideService {
	return &OverrideService{graph: graph, aggregator: aggregator}
}

// Override sets the sentiment at position for one engine of a parsing,
// recomputes that engine's metrics and persists both together.
func (s *OverrideService) Override(ctx context.Context, parsingID, engine string, position int, sentiment domain.Sentiment) (domain.EngineOutcome, error) {
	sentiment, err := domain.ParseSentiment(string(sentiment))
	if err != nil {
		return domain.EngineOutcome{}, err
	}

	var updated domain.EngineOutcome
	err = s.graph.Edit(ctx, func(graph *domain.Graph) error {
		parsing, _ := graph.Parsing(parsingID)
		if parsing == nil {
			return fmt.Errorf("%w: %s", ErrParsingNotFound, parsingID)
		}
		outcome, ok := parsing.Engines[engine]
		if !ok {
			return fmt.Errorf("%w: %s", ErrEngineNotFound, engine)
		}

		idx := -1
		for i := range outcome.Results {
			if outcome.Results[i].Position == position {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %d", ErrPositionNotFound, position)
		}

		results := append([]domain.SearchResult(nil), outcome.Results...)
		results[idx].Sentiment = sentiment
		results[idx].Confidence = 1
		results[idx].Explanation = overrideExplanation
		results[idx].Overridden = true

		outcome.Results = results
		outcome.Metrics = s.aggregator.Aggregate(results)
		parsing.Engines[engine] = outcome
		updated = outcome
		return nil
	})
	if err != nil {
		return domain.EngineOutcome{}, err
	}
	return updated, nil
}
