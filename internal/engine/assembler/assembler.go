package assembler

import (
	"fmt"

	"github.com/crimson-sun/churn/internal/model"
)

// Assemble concatenates numeric and categorical matrices row by row, numeric
// block first. Row counts must match; widths are taken as given.
func Assemble(numeric, categorical [][]float64) ([][]float64, error) {
	if len(numeric) != len(categorical) {
		return nil, fmt.Errorf("assembler: %w: %d numeric rows, %d categorical rows",
			model.ErrShapeMismatch, len(numeric), len(categorical))
	}

	out := make([][]float64, len(numeric))
	for i := range numeric {
		row := make([]float64, 0, len(numeric[i])+len(categorical[i]))
		row = append(row, numeric[i]...)
		row = append(row, categorical[i]...)
		out[i] = row
	}
	return out, nil
}
