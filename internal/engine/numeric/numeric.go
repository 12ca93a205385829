package numeric

import (
	"fmt"
	"math"

	"github.com/crimson-sun/churn/internal/model"
)

// Transformer imputes missing numeric values with the fitted median, then
// standardizes with the fitted mean and std. Feature accessors are resolved
// once so each row is a fixed-order array walk.
type Transformer struct {
	fields  []model.NumericField
	medians []float64
	means   []float64
	scales  []float64
}

// New builds a Transformer from fitted params. A std of 0 scales by 1.
func New(p *model.NumericParams) (*Transformer, error) {
	n := len(p.Features)
	if len(p.Medians) != n || len(p.Means) != n || len(p.Stds) != n {
		return nil, fmt.Errorf("numeric: %w: %d features, %d medians, %d means, %d stds",
			model.ErrShapeMismatch, n, len(p.Medians), len(p.Means), len(p.Stds))
	}

	t := &Transformer{
		fields:  make([]model.NumericField, n),
		medians: p.Medians,
		means:   p.Means,
		scales:  make([]float64, n),
	}
	for i, name := range p.Features {
		f, ok := model.LookupNumeric(name)
		if !ok {
			return nil, fmt.Errorf("numeric: unknown feature %q", name)
		}
		t.fields[i] = f
		t.scales[i] = p.Stds[i]
		if t.scales[i] == 0 {
			t.scales[i] = 1
		}
	}
	return t, nil
}

// Width returns the number of output columns.
func (t *Transformer) Width() int {
	return len(t.fields)
}

// TransformRow writes the transformed features of r into dst, which must
// have length Width(). NaN counts as missing.
func (t *Transformer) TransformRow(r *model.FeatureRecord, dst []float64) {
	for i, get := range t.fields {
		v, ok := get(r)
		if !ok || math.IsNaN(v) {
			v = t.medians[i]
		}
		dst[i] = (v - t.means[i]) / t.scales[i]
	}
}

// Transform returns an [len(records) x Width()] matrix.
func (t *Transformer) Transform(records []model.FeatureRecord) [][]float64 {
	out := make([][]float64, len(records))
	for i := range records {
		out[i] = make([]float64, len(t.fields))
		t.TransformRow(&records[i], out[i])
	}
	return out
}

// Transform is a convenience wrapper for one-off use with a params set.
func Transform(records []model.FeatureRecord, p *model.NumericParams) ([][]float64, error) {
	t, err := New(p)
	if err != nil {
		return nil, err
	}
	return t.Transform(records), nil
}
