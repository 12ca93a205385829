package artifact

import (
	"fmt"
	"math"
	"strings"

	"github.com/crimson-sun/churn/internal/model"
)

// Validate checks the internal consistency of a parameter bundle. Every
// failure wraps ErrCorrupt.
func Validate(p *model.Params) error {
	if err := validateNumeric(&p.Numeric); err != nil {
		return fmt.Errorf("artifact: %w: %v", ErrCorrupt, err)
	}
	if err := validateCategorical(&p.Categorical); err != nil {
		return fmt.Errorf("artifact: %w: %v", ErrCorrupt, err)
	}
	if err := validateLinear(&p.Linear, p.Width()); err != nil {
		return fmt.Errorf("artifact: %w: %v", ErrCorrupt, err)
	}
	return nil
}

func validateNumeric(p *model.NumericParams) error {
	n := len(p.Features)
	if len(p.Medians) != n || len(p.Means) != n || len(p.Stds) != n {
		return fmt.Errorf("numeric: %d features but %d medians, %d means, %d stds",
			n, len(p.Medians), len(p.Means), len(p.Stds))
	}
	seen := make(map[string]bool, n)
	for i, name := range p.Features {
		if _, ok := model.LookupNumeric(name); !ok {
			return fmt.Errorf("numeric: unknown feature %q", name)
		}
		if seen[name] {
			return fmt.Errorf("numeric: duplicate feature %q", name)
		}
		seen[name] = true
		if !finite(p.Medians[i]) || !finite(p.Means[i]) || !finite(p.Stds[i]) {
			return fmt.Errorf("numeric: %s: non-finite statistic", name)
		}
		if p.Stds[i] < 0 {
			return fmt.Errorf("numeric: %s: negative std %v", name, p.Stds[i])
		}
	}
	return nil
}

func validateCategorical(p *model.CategoricalParams) error {
	n := len(p.Features)
	if len(p.Modes) != n || len(p.Vocabularies) != n {
		return fmt.Errorf("categorical: %d features but %d modes, %d vocabularies",
			n, len(p.Modes), len(p.Vocabularies))
	}
	seen := make(map[string]bool, n)
	for i, name := range p.Features {
		field, ok := model.LookupCategorical(name)
		if !ok {
			return fmt.Errorf("categorical: unknown feature %q", name)
		}
		if seen[name] {
			return fmt.Errorf("categorical: duplicate feature %q", name)
		}
		seen[name] = true

		vocab := p.Vocabularies[i]
		if len(vocab) == 0 {
			return fmt.Errorf("categorical: %s: empty vocabulary", name)
		}
		cats := make(map[string]bool, len(vocab))
		for _, c := range vocab {
			if c == "" {
				return fmt.Errorf("categorical: %s: empty category", name)
			}
			key := c
			if field.Boolean {
				key = strings.ToLower(c)
				if key != "true" && key != "false" {
					return fmt.Errorf("categorical: %s: boolean category %q", name, c)
				}
			}
			if cats[key] {
				return fmt.Errorf("categorical: %s: duplicate category %q", name, c)
			}
			cats[key] = true
		}
		if p.Modes[i] == "" {
			return fmt.Errorf("categorical: %s: empty mode", name)
		}
	}
	return nil
}

func validateLinear(p *model.LinearParams, width int) error {
	if len(p.Weights) != width {
		return fmt.Errorf("model: %d weights for %d assembled columns", len(p.Weights), width)
	}
	for i, w := range p.Weights {
		if !finite(w) {
			return fmt.Errorf("model: weight %d is not finite", i)
		}
	}
	if !finite(p.Bias) {
		return fmt.Errorf("model: bias is not finite")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
