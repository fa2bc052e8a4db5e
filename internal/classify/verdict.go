package classify

import (
	"encoding/json"
	"fmt"
	"strings"

	"ReputationScanner/internal/domain"
)

// Prompt is the instruction sent to model backends.
func Prompt(title, snippet, url string) string {
	var b strings.Builder
	b.WriteString("Classify the sentiment of this search result towards the entity it mentions.\n")
	b.WriteString("Answer with JSON only: {\"sentiment\": \"positive|negative|neutral\", \"confidence\": 0..1, \"explanation\": \"one short sentence\"}.\n\n")
	fmt.Fprintf(&b, "Title: %s\nSnippet: %s\nURL: %s\n", title, snippet, url)
	return b.String()
}

// ParseVerdict reads a model reply, tolerating markdown code fences.
func ParseVerdict(text string) (Result, error) {
	var raw struct {
		Sentiment   string   `json:"sentiment"`
		Confidence  *float64 `json:"confidence"`
		Explanation string   `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(cleanJSONBlock(text)), &raw); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	s, err := domain.ParseSentiment(raw.Sentiment)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	confidence := 0.5
	if raw.Confidence != nil {
		confidence = min(1, max(0, *raw.Confidence))
	}
	return Result{Sentiment: s, Confidence: confidence, Explanation: strings.TrimSpace(raw.Explanation)}, nil
}

func cleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 && !strings.Contains(text[:idx], "{") {
		text = text[idx+1:]
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
