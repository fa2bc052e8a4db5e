package metrics

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed weights.yaml
var defaultWeights []byte

const (
	// TopPositions is how many leading results drive rating and percentages.
	TopPositions = 10
	tailFirst    = TopPositions + 1
	flatLast     = 100
)

// Weights maps a result position to its assumed click-through share.
type Weights struct {
	Top  []float64 `yaml:"top"`
	Tail []float64 `yaml:"tail"`
	Flat float64   `yaml:"flat"`
}

// DefaultWeights returns the bundled CTR table.
func DefaultWeights() Weights {
	w, err := ParseWeights(defaultWeights)
	if err != nil {
		panic(fmt.Sprintf("metrics: bundled weights are invalid: %v", err))
	}
	return w
}

// LoadWeights reads a YAML weight table. An empty path yields the bundled one.
func LoadWeights(path string) (Weights, error) {
	if path == "" {
		return DefaultWeights(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, fmt.Errorf("read weights %s: %w", path, err)
	}
	return ParseWeights(raw)
}

// ParseWeights decodes and validates a YAML weight table.
func ParseWeights(raw []byte) (Weights, error) {
	var w Weights
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return Weights{}, fmt.Errorf("decode weights: %w", err)
	}
	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}

// Validate requires exactly TopPositions strictly decreasing positive top weights.
func (w Weights) Validate() error {
	if len(w.Top) != TopPositions {
		return fmt.Errorf("weights: need %d top weights, got %d", TopPositions, len(w.Top))
	}
	for i, v := range w.Top {
		if v <= 0 {
			return fmt.Errorf("weights: position %d has non-positive weight %v", i+1, v)
		}
		if i > 0 && v >= w.Top[i-1] {
			return fmt.Errorf("weights: position %d (%v) must be lower than position %d (%v)", i+1, v, i, w.Top[i-1])
		}
	}
	for i := 1; i < len(w.Tail); i++ {
		if w.Tail[i] > w.Tail[i-1] {
			return fmt.Errorf("weights: tail position %d increases", tailFirst+i)
		}
	}
	if w.Flat < 0 {
		return fmt.Errorf("weights: negative flat weight")
	}
	return nil
}

// At returns the weight for a 1-based position.
func (w Weights) At(position int) float64 {
	switch {
	case position >= 1 && position <= len(w.Top):
		return w.Top[position-1]
	case position >= tailFirst && position < tailFirst+len(w.Tail):
		return w.Tail[position-tailFirst]
	default:
		return w.Flat
	}
}
