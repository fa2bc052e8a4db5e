package domain

import "strconv"

// RiskLevel grades the share of negative weight in the top results.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ReputationMetrics is derived from a classified batch and stored only next to it.
type ReputationMetrics struct {
	Rating          float64   `json:"rating"`
	PositivePercent float64   `json:"positive_percent"`
	NegativePercent float64   `json:"negative_percent"`
	NeutralPercent  float64   `json:"neutral_percent"`
	RiskLevel       RiskLevel `json:"risk_level"`
	PositiveCount   int       `json:"positive_count"`
	NegativeCount   int       `json:"negative_count"`
	NeutralCount    int       `json:"neutral_count"`
	TotalResults    int       `json:"total_results"`
}

// RatingText formats the rating with one decimal, e.g. "87.5".
func (m ReputationMetrics) RatingText() string {
	return strconv.FormatFloat(m.Rating, 'f', 1, 64)
}

// EngineOutcome holds one engine's classified results and the metrics computed from them.
type EngineOutcome struct {
	Engine  string            `json:"engine"`
	Results []SearchResult    `json:"results"`
	Metrics ReputationMetrics `json:"metrics"`
}
