package sentiment

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexicon []byte

// DefaultThreshold is the normalized score difference above which a text leaves neutral.
const DefaultThreshold = 0.3

// Stem is a keyword prefix with its weight (1..3).
type Stem struct {
	Stem   string `yaml:"stem"`
	Weight int    `yaml:"weight"`
}

// DomainRule biases results from a source domain and names its category.
type DomainRule struct {
	Domain   string  `yaml:"domain"`
	Bias     float64 `yaml:"bias"`
	Category string  `yaml:"category"`
}

// Lexicon is the data the lexical classifier runs on. A nil Threshold means
// DefaultThreshold; zero is a valid setting.
type Lexicon struct {
	Threshold *float64     `yaml:"threshold"`
	Positive  []Stem       `yaml:"positive"`
	Negative  []Stem       `yaml:"negative"`
	Negations []string     `yaml:"negations"`
	Domains   []DomainRule `yaml:"domains"`
}

// DefaultLexicon returns the bundled lexicon.
func DefaultLexicon() Lexicon {
	lex, err := ParseLexicon(defaultLexicon)
	if err != nil {
		panic(fmt.Sprintf("sentiment: bundled lexicon is invalid: %v", err))
	}
	return lex
}

// LoadLexicon reads a YAML lexicon from disk. An empty path yields the bundled one.
func LoadLexicon(path string) (Lexicon, error) {
	if path == "" {
		return DefaultLexicon(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	return ParseLexicon(raw)
}

// ParseLexicon decodes, normalizes and validates YAML lexicon data.
func ParseLexicon(raw []byte) (Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(raw, &lex); err != nil {
		return Lexicon{}, fmt.Errorf("decode lexicon: %w", err)
	}
	lex = lex.Normalized()
	if err := lex.Validate(); err != nil {
		return Lexicon{}, err
	}
	return lex, nil
}

// EffectiveThreshold resolves an unset threshold to DefaultThreshold.
func (l Lexicon) EffectiveThreshold() float64 {
	if l.Threshold == nil {
		return DefaultThreshold
	}
	return *l.Threshold
}

// Normalized returns a copy with lowercased stems, negations and domains.
// The receiver's slices are left untouched.
func (l Lexicon) Normalized() Lexicon {
	out := Lexicon{
		Positive:  make([]Stem, len(l.Positive)),
		Negative:  make([]Stem, len(l.Negative)),
		Negations: make([]string, len(l.Negations)),
		Domains:   make([]DomainRule, len(l.Domains)),
	}
	if l.Threshold != nil {
		threshold := *l.Threshold
		out.Threshold = &threshold
	}
	for i, stem := range l.Positive {
		stem.Stem = strings.ToLower(strings.TrimSpace(stem.Stem))
		out.Positive[i] = stem
	}
	for i, stem := range l.Negative {
		stem.Stem = strings.ToLower(strings.TrimSpace(stem.Stem))
		out.Negative[i] = stem
	}
	for i, n := range l.Negations {
		out.Negations[i] = strings.ToLower(strings.TrimSpace(n))
	}
	for i, rule := range l.Domains {
		rule.Domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(rule.Domain)), "www.")
		out.Domains[i] = rule
	}
	return out
}

// Validate checks the threshold range and stem weights of a normalized lexicon.
func (l Lexicon) Validate() error {
	if t := l.EffectiveThreshold(); t < 0 || t >= 1 {
		return fmt.Errorf("lexicon threshold %.2f out of range [0,1)", t)
	}
	for _, list := range [][]Stem{l.Positive, l.Negative} {
		for _, stem := range list {
			if stem.Stem == "" {
				return fmt.Errorf("lexicon has an empty stem")
			}
			if stem.Weight < 1 || stem.Weight > 3 {
				return fmt.Errorf("stem %q: weight %d out of range 1..3", stem.Stem, stem.Weight)
			}
		}
	}
	return nil
}
