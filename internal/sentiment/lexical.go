// Package sentiment implements the deterministic weighted-keyword classifier.
package sentiment

import (
	"math"
	"strings"
	"unicode"

	"ReputationScanner/internal/domain"
)

const (
	// MaxTokens caps how much of title+snippet is scored.
	MaxTokens = 200
	// MaxSnippetRunes bounds the snippet before tokenization.
	MaxSnippetRunes = 1000
	// NegationWindow is how many preceding tokens can negate a match.
	NegationWindow = 3
)

// Verdict is the outcome of a lexical classification.
type Verdict struct {
	Sentiment     domain.Sentiment
	Confidence    float64
	Explanation   string
	PositiveScore float64
	NegativeScore float64
}

// Classifier scores title/snippet/domain triples against a Lexicon.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	positive  []Stem
	negative  []Stem
	negations map[string]struct{}
	domains   []DomainRule
	threshold float64
}

// New compiles a lexicon into a classifier.
func New(lex Lexicon) (*Classifier, error) {
	lex = lex.Normalized()
	if err := lex.Validate(); err != nil {
		return nil, err
	}
	negations := make(map[string]struct{}, len(lex.Negations))
	for _, n := range lex.Negations {
		negations[n] = struct{}{}
	}
	return &Classifier{
		positive:  lex.Positive,
		negative:  lex.Negative,
		negations: negations,
		domains:   lex.Domains,
		threshold: lex.EffectiveThreshold(),
	}, nil
}

// NewDefault builds a classifier on the bundled lexicon.
func NewDefault() *Classifier {
	c, err := New(DefaultLexicon())
	if err != nil {
		panic(err)
	}
	return c
}

// Classify never fails: text without tokens is neutral with an empty explanation.
func (c *Classifier) Classify(title, snippet, sourceDomain string) Verdict {
	tokens := Tokenize(title + " " + truncateRunes(snippet, MaxSnippetRunes))
	if len(tokens) == 0 {
		return Verdict{Sentiment: domain.SentimentNeutral, Confidence: 0.5}
	}

	var pos, neg float64
	for i, token := range tokens {
		negated := c.negatedAt(tokens, i)
		if w := firstMatch(c.positive, token); w > 0 {
			if negated {
				neg += float64(w) / 2
			} else {
				pos += float64(w)
			}
		}
		if w := firstMatch(c.negative, token); w > 0 {
			if negated {
				pos += float64(w) / 2
			} else {
				neg += float64(w)
			}
		}
	}

	rule, known := c.domainRule(sourceDomain)
	if known {
		if rule.Bias > 0 {
			pos += rule.Bias
		} else {
			neg += -rule.Bias
		}
	}

	verdict := Verdict{
		Sentiment:     domain.SentimentNeutral,
		Confidence:    0.5,
		PositiveScore: pos,
		NegativeScore: neg,
	}
	if total := pos + neg; total > 0 {
		diff := (pos - neg) / total
		switch {
		case diff > c.threshold:
			verdict.Sentiment = domain.SentimentPositive
		case diff < -c.threshold:
			verdict.Sentiment = domain.SentimentNegative
		}
		verdict.Confidence = math.Min(1, 0.5+math.Abs(diff)/2)
	}

	verdict.Explanation = c.explain(tokens, rule, known)
	return verdict
}

func (c *Classifier) negatedAt(tokens []string, i int) bool {
	for j := max(0, i-NegationWindow); j < i; j++ {
		if _, ok := c.negations[tokens[j]]; ok {
			return true
		}
	}
	return false
}

// domainRule picks the most specific rule matching the domain or one of its parents.
func (c *Classifier) domainRule(sourceDomain string) (DomainRule, bool) {
	host := domain.HostOf(sourceDomain)
	if host == "" {
		return DomainRule{}, false
	}
	var (
		best  DomainRule
		found bool
	)
	for _, rule := range c.domains {
		if host != rule.Domain && !strings.HasSuffix(host, "."+rule.Domain) {
			continue
		}
		if !found || len(rule.Domain) > len(best.Domain) {
			best, found = rule, true
		}
	}
	return best, found
}

func firstMatch(stems []Stem, token string) int {
	for _, s := range stems {
		if strings.HasPrefix(token, s.Stem) {
			return s.Weight
		}
	}
	return 0
}

func firstStem(stems []Stem, token string) (Stem, bool) {
	for _, s := range stems {
		if strings.HasPrefix(token, s.Stem) {
			return s, true
		}
	}
	return Stem{}, false
}

// Tokenize lowercases text and splits it on anything that is not a letter or digit.
func Tokenize(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(tokens) > MaxTokens {
		tokens = tokens[:MaxTokens]
	}
	return tokens
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
