package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Sentiment is the polarity assigned to a single search result.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ErrInvalidSentiment is returned when a value is not one of the known polarities.
var ErrInvalidSentiment = errors.New("invalid sentiment")

// ParseSentiment normalizes raw input into a Sentiment.
func ParseSentiment(value string) (Sentiment, error) {
	switch Sentiment(strings.ToLower(strings.TrimSpace(value))) {
	case SentimentPositive:
		return SentimentPositive, nil
	case SentimentNegative:
		return SentimentNegative, nil
	case SentimentNeutral:
		return SentimentNeutral, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSentiment, value)
	}
}

// Result types reported by engines.
const (
	ResultTypeOrganic = "organic"
	ResultTypeNews    = "news"
	ResultTypeVideo   = "video"
)

// RawResult is a ranked item as returned by a search engine, before classification.
type RawResult struct {
	Position int    `json:"position"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
	Domain   string `json:"domain"`
	Type     string `json:"type"`
}

// SearchResult is a classified search result. Position is dense and follows list order.
type SearchResult struct {
	Position    int       `json:"position"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Snippet     string    `json:"snippet"`
	Domain      string    `json:"domain"`
	Type        string    `json:"type"`
	Sentiment   Sentiment `json:"sentiment"`
	Confidence  float64   `json:"confidence"`
	Explanation string    `json:"explanation"`
	Overridden  bool      `json:"overridden,omitempty"`
}

// FromRaw copies the engine fields of a raw result; sentiment stays unset.
func FromRaw(raw RawResult) SearchResult {
	return SearchResult{
		Position: raw.Position,
		URL:      raw.URL,
		Title:    raw.Title,
		Snippet:  raw.Snippet,
		Domain:   raw.Domain,
		Type:     raw.Type,
	}
}

// RenumberRaw rewrites positions to 1..N following slice order.
func RenumberRaw(items []RawResult) []RawResult {
	for i := range items {
		items[i].Position = i + 1
	}
	return items
}

// RenumberResults rewrites positions to 1..N following slice order.
func RenumberResults(items []SearchResult) []SearchResult {
	for i := range items {
		items[i].Position = i + 1
	}
	return items
}

// HostOf extracts a lowercase host without a leading "www." from a URL or bare host.
func HostOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

// Query asks one engine for up to Depth ranked results.
type Query struct {
	Text   string `json:"text"`
	Engine string `json:"engine"`
	Depth  int    `json:"depth"`
	Region string `json:"region,omitempty"`
}
