package scorer

import (
	"fmt"
	"math"

	"github.com/crimson-sun/churn/internal/model"
)

// Threshold is the inclusive probability cut-off for a positive label.
const Threshold = 0.5

// Scorer evaluates a logistic-link linear model over assembled rows.
type Scorer struct {
	weights []float64
	bias    float64
}

// New creates a Scorer for the given model params.
func New(p *model.LinearParams) *Scorer {
	return &Scorer{weights: p.Weights, bias: p.Bias}
}

// Width is the row width the scorer accepts.
func (s *Scorer) Width() int {
	return len(s.weights)
}

// ScoreRow returns the churn probability for a single assembled row.
func (s *Scorer) ScoreRow(row []float64) (float64, error) {
	if len(row) != len(s.weights) {
		return 0, fmt.Errorf("scorer: %w: row width %d, %d weights",
			model.ErrShapeMismatch, len(row), len(s.weights))
	}
	var dot float64
	for i, w := range s.weights {
		dot += row[i] * w
	}
	return Sigmoid(dot + s.bias), nil
}

// Score returns one probability per row.
func (s *Scorer) Score(matrix [][]float64) ([]float64, error) {
	out := make([]float64, len(matrix))
	for i, row := range matrix {
		p, err := s.ScoreRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// Score is a convenience wrapper for one-off use with a params set.
func Score(matrix [][]float64, p *model.LinearParams) ([]float64, error) {
	return New(p).Score(matrix)
}

// Sigmoid is the logistic link 1/(1+e^-z). Large negative z underflows to 0
// rather than producing NaN.
func Sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// Label thresholds a probability: 1 iff p >= Threshold.
func Label(p float64) int {
	if p >= Threshold {
		return 1
	}
	return 0
}
