package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReputationScanner/internal/domain"
)

func batch(sentiments ...domain.Sentiment) []domain.SearchResult {
	results := make([]domain.SearchResult, len(sentiments))
	for i, s := range sentiments {
		results[i] = domain.SearchResult{Position: i + 1, URL: "https://example.org", Sentiment: s}
	}
	return results
}

func repeat(s domain.Sentiment, n int) []domain.Sentiment {
	out := make([]domain.Sentiment, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func TestAggregate_UniformTopTen(t *testing.T) {
	t.Parallel()
	agg := NewDefaultAggregator()

	cases := []struct {
		name   string
		s      domain.Sentiment
		rating string
		risk   domain.RiskLevel
	}{
		{"all positive", domain.SentimentPositive, "100.0", domain.RiskLow},
		{"all negative", domain.SentimentNegative, "0.0", domain.RiskHigh},
		{"all neutral", domain.SentimentNeutral, "87.5", domain.RiskLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := agg.Aggregate(batch(repeat(tc.s, 10)...))
			assert.Equal(t, tc.rating, m.RatingText())
			assert.Equal(t, tc.risk, m.RiskLevel)
			assert.Equal(t, 10, m.TotalResults)
		})
	}
}

func TestAggregate_Percentages(t *testing.T) {
	t.Parallel()
	agg := NewDefaultAggregator()

	// position 1 negative (30), position 2 positive (20), the rest neutral (50)
	sentiments := append([]domain.Sentiment{domain.SentimentNegative, domain.SentimentPositive}, repeat(domain.SentimentNeutral, 8)...)
	m := agg.Aggregate(batch(sentiments...))

	assert.Equal(t, 20.0, m.PositivePercent)
	assert.Equal(t, 30.0, m.NegativePercent)
	assert.Equal(t, 50.0, m.NeutralPercent)
	assert.Equal(t, domain.RiskLow, m.RiskLevel)
	// score = 20 - 30 + 37.5
	assert.Equal(t, 63.8, m.Rating)
}

func TestAggregate_RiskThresholds(t *testing.T) {
	t.Parallel()
	agg := NewDefaultAggregator()

	// positions 1 and 5: 38% negative
	medium := repeat(domain.SentimentNeutral, 10)
	medium[0], medium[4] = domain.SentimentNegative, domain.SentimentNegative
	assert.Equal(t, domain.RiskMedium, agg.Aggregate(batch(medium...)).RiskLevel)

	// positions 1 and 2: 50% exactly is not above the high threshold
	half := repeat(domain.SentimentNeutral, 10)
	half[0], half[1] = domain.SentimentNegative, domain.SentimentNegative
	assert.Equal(t, domain.RiskMedium, agg.Aggregate(batch(half...)).RiskLevel)

	high := repeat(domain.SentimentNeutral, 10)
	high[0], high[1], high[2] = domain.SentimentNegative, domain.SentimentNegative, domain.SentimentNegative
	assert.Equal(t, domain.RiskHigh, agg.Aggregate(batch(high...)).RiskLevel)
}

func TestAggregate_TopTenBoundary(t *testing.T) {
	t.Parallel()
	agg := NewDefaultAggregator()

	base := batch(append(repeat(domain.SentimentPositive, 5), repeat(domain.SentimentNeutral, 10)...)...)
	before := agg.Aggregate(base)

	mutated := append([]domain.SearchResult(nil), base...)
	for i := 10; i < 15; i++ {
		mutated[i].Sentiment = domain.SentimentNegative
	}
	after := agg.Aggregate(mutated)

	assert.Equal(t, before.Rating, after.Rating)
	assert.Equal(t, before.RiskLevel, after.RiskLevel)
	assert.Equal(t, before.NegativePercent, after.NegativePercent)
	// counts still see the whole list
	assert.Equal(t, 0, before.NegativeCount)
	assert.Equal(t, 5, after.NegativeCount)
	assert.Equal(t, 15, after.TotalResults)
}

func TestAggregate_Idempotent(t *testing.T) {
	t.Parallel()
	agg := NewDefaultAggregator()

	results := batch(domain.SentimentNegative, domain.SentimentPositive, domain.SentimentNeutral, domain.SentimentPositive)
	first := agg.Aggregate(results)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, agg.Aggregate(results))
	}
}

func TestAggregate_Empty(t *testing.T) {
	t.Parallel()
	m := NewDefaultAggregator().Aggregate(nil)
	assert.Equal(t, domain.ReputationMetrics{RiskLevel: domain.RiskLow}, m)
}

func TestDefaultWeights_StrictlyDecreasingTop(t *testing.T) {
	t.Parallel()
	w := DefaultWeights()

	assert.Equal(t, 30.0, w.At(1))
	assert.Equal(t, 1.5, w.At(10))
	for p := 2; p <= TopPositions; p++ {
		assert.Less(t, w.At(p), w.At(p-1), "position %d", p)
	}
	for p := 12; p <= 50; p++ {
		assert.LessOrEqual(t, w.At(p), w.At(p-1), "position %d", p)
	}
	assert.Equal(t, 0.03, w.At(51))
	assert.Equal(t, 0.03, w.At(100))
	assert.Equal(t, 0.03, w.At(250))
	assert.Equal(t, 0.03, w.At(0))

	var sum float64
	for p := 1; p <= TopPositions; p++ {
		sum += w.At(p)
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
}

func TestNewAggregator_SyntheticTable(t *testing.T) {
	t.Parallel()

	_, err := NewAggregator(Weights{Top: []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 2}})
	require.Error(t, err)

	agg, err := NewAggregator(Weights{Top: []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, Flat: 0.5})
	require.NoError(t, err)
	m := agg.Aggregate(batch(repeat(domain.SentimentPositive, 10)...))
	// score 55 with a table that sums to 55
	assert.Equal(t, 77.5, m.Rating)
}

func TestParseWeights(t *testing.T) {
	t.Parallel()

	_, err := ParseWeights([]byte("top: [3, 2, 1]"))
	assert.ErrorContains(t, err, "need 10 top weights")

	w, err := ParseWeights([]byte("top: [10, 9, 8, 7, 6, 5, 4, 3, 2, 1]\ntail: [0.5, 0.4]\nflat: 0.01"))
	require.NoError(t, err)
	assert.Equal(t, 0.5, w.At(11))
	assert.Equal(t, 0.4, w.At(12))
	assert.Equal(t, 0.01, w.At(13))
}
