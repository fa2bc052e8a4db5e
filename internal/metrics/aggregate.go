// Package metrics turns a ranked, classified result list into reputation metrics.
package metrics

import (
	"math"

	"ReputationScanner/internal/domain"
)

const (
	neutralFactor   = 0.75
	highRiskShare   = 0.5
	mediumRiskShare = 0.3
)

// Aggregator computes ReputationMetrics with a fixed weight table.
type Aggregator struct {
	weights Weights
}

// NewAggregator validates the table and returns an aggregator.
func NewAggregator(w Weights) (*Aggregator, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Aggregator{weights: w}, nil
}

// NewDefaultAggregator uses the bundled CTR table.
func NewDefaultAggregator() *Aggregator {
	return &Aggregator{weights: DefaultWeights()}
}

// Aggregate is pure: counts cover the whole list, rating and percentages only
// the first TopPositions entries in list order.
func (a *Aggregator) Aggregate(results []domain.SearchResult) domain.ReputationMetrics {
	m := domain.ReputationMetrics{RiskLevel: domain.RiskLow, TotalResults: len(results)}
	for _, r := range results {
		switch r.Sentiment {
		case domain.SentimentPositive:
			m.PositiveCount++
		case domain.SentimentNegative:
			m.NegativeCount++
		default:
			m.NeutralCount++
		}
	}
	if len(results) == 0 {
		return m
	}

	top := results
	if len(top) > TopPositions {
		top = top[:TopPositions]
	}

	var total, positive, negative, neutral, score float64
	for i, r := range top {
		w := a.weights.At(i + 1)
		total += w
		switch r.Sentiment {
		case domain.SentimentPositive:
			positive += w
			score += w
		case domain.SentimentNegative:
			negative += w
			score -= w
		default:
			neutral += w
			score += w * neutralFactor
		}
	}

	m.Rating = round1((score + 100) / 2)
	if total > 0 {
		m.PositivePercent = round1(positive / total * 100)
		m.NegativePercent = round1(negative / total * 100)
		m.NeutralPercent = round1(neutral / total * 100)
		switch share := negative / total; {
		case share > highRiskShare:
			m.RiskLevel = domain.RiskHigh
		case share > mediumRiskShare:
			m.RiskLevel = domain.RiskMedium
		}
	}
	return m
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
