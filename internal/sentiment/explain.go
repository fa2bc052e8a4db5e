package sentiment

import (
	"sort"
	"strings"
)

const maxExplainedStems = 3

var categoryLabels = map[string]string{
	"review":      "Review site",
	"social":      "Social platform",
	"state_media": "State media",
	"news":        "News outlet",
	"reference":   "Reference source",
}

// explain ignores negation and lists the heaviest matched stems per polarity.
func (c *Classifier) explain(tokens []string, rule DomainRule, known bool) string {
	positive := collectStems(c.positive, tokens)
	negative := collectStems(c.negative, tokens)

	var parts []string
	if len(positive) > 0 {
		parts = append(parts, positivePhrase(rule.Category)+strings.Join(positive, ", "))
	}
	if len(negative) > 0 {
		parts = append(parts, negativePhrase(rule.Category)+strings.Join(negative, ", "))
	}

	label := ""
	if known {
		label = categoryLabels[rule.Category]
	}
	switch {
	case len(parts) == 0 && label == "":
		return ""
	case len(parts) == 0:
		return label + ", no sentiment markers"
	case label == "":
		return capitalize(strings.Join(parts, "; "))
	default:
		return label + ": " + strings.Join(parts, "; ")
	}
}

func collectStems(stems []Stem, tokens []string) []string {
	seen := map[string]int{}
	order := []string{}
	for _, token := range tokens {
		s, ok := firstStem(stems, token)
		if !ok {
			continue
		}
		if _, dup := seen[s.Stem]; !dup {
			order = append(order, s.Stem)
		}
		seen[s.Stem] = s.Weight
	}
	sort.SliceStable(order, func(i, j int) bool {
		return seen[order[i]] > seen[order[j]]
	})
	if len(order) > maxExplainedStems {
		order = order[:maxExplainedStems]
	}
	return order
}

func positivePhrase(category string) string {
	switch category {
	case "review":
		return "customers praise "
	case "social":
		return "users mention "
	case "state_media":
		return "official coverage highlights "
	default:
		return "positive markers "
	}
}

func negativePhrase(category string) string {
	switch category {
	case "review":
		return "customers complain about "
	case "social":
		return "users criticize "
	case "state_media":
		return "official coverage reports "
	default:
		return "negative markers "
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
