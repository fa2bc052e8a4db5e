package usecase

import (
	"fmt"
	"sort"
	"strings"

	"ReputationScanner/internal/domain"
)

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "[", "\\[", "`", "\\`")

// BuildDigest formats a Markdown summary of a completed parsing, engines in
// the entity's configured order.
func BuildDigest(entity domain.Entity, parsing domain.Parsing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", markdownEscaper.Replace(entity.Name))

	if len(parsing.Engines) == 0 {
		b.WriteString("No engines configured.\n")
		return b.String()
	}

	for _, engine := range orderedEngines(entity.Engines, parsing.Engines) {
		m := parsing.Engines[engine].Metrics
		flag := ""
		if m.RiskLevel == domain.RiskHigh {
			flag = " HIGH RISK"
		}
		fmt.Fprintf(&b, "- %s: rating %s, risk %s%s\n  %d positive, %d negative, %d neutral of %d\n",
			markdownEscaper.Replace(engine),
			m.RatingText(),
			m.RiskLevel,
			flag,
			m.PositiveCount,
			m.NegativeCount,
			m.NeutralCount,
			m.TotalResults)
	}
	return b.String()
}

func orderedEngines(configured []string, outcomes map[string]domain.EngineOutcome) []string {
	seen := make(map[string]bool, len(outcomes))
	order := make([]string, 0, len(outcomes))
	for _, name := range configured {
		if _, ok := outcomes[name]; ok && !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	var rest []string
	for name := range outcomes {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}
