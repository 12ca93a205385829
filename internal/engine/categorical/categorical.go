package categorical

import (
	"fmt"
	"strings"

	"github.com/crimson-sun/churn/internal/model"
)

// block is one feature's slice of the one-hot output.
type block struct {
	field  model.CategoricalField
	mode   string
	offset int
	index  map[string]int
}

// Encoder imputes missing categorical values with the fitted mode and
// one-hot encodes them against the fitted vocabularies. Values outside the
// vocabulary yield an all-zero block.
type Encoder struct {
	blocks []block
	width  int
}

// NewEncoder precomputes block offsets and vocabulary indexes for p.
// Boolean features match their vocabulary case-insensitively so both
// "true" and "True" exports resolve.
func NewEncoder(p *model.CategoricalParams) (*Encoder, error) {
	n := len(p.Features)
	if len(p.Modes) != n || len(p.Vocabularies) != n {
		return nil, fmt.Errorf("categorical: %w: %d features, %d modes, %d vocabularies",
			model.ErrShapeMismatch, n, len(p.Modes), len(p.Vocabularies))
	}

	e := &Encoder{blocks: make([]block, n)}
	for i, name := range p.Features {
		field, ok := model.LookupCategorical(name)
		if !ok {
			return nil, fmt.Errorf("categorical: unknown feature %q", name)
		}
		vocab := p.Vocabularies[i]
		index := make(map[string]int, len(vocab))
		for j, v := range vocab {
			key := normalize(field, v)
			if _, dup := index[key]; dup {
				return nil, fmt.Errorf("categorical: feature %q: duplicate category %q", name, v)
			}
			index[key] = j
		}
		e.blocks[i] = block{
			field:  field,
			mode:   normalize(field, p.Modes[i]),
			offset: e.width,
			index:  index,
		}
		e.width += len(vocab)
	}
	return e, nil
}

func normalize(f model.CategoricalField, v string) string {
	if f.Boolean {
		return strings.ToLower(v)
	}
	return v
}

// Width returns the total number of one-hot columns.
func (e *Encoder) Width() int {
	return e.width
}

// TransformRow writes the one-hot encoding of r into dst, which must have
// length Width(). dst is fully overwritten.
func (e *Encoder) TransformRow(r *model.FeatureRecord, dst []float64) {
	clear(dst)
	for _, b := range e.blocks {
		v, ok := b.field.Get(r)
		if ok {
			v = normalize(b.field, v)
		} else {
			v = b.mode
		}
		if j, known := b.index[v]; known {
			dst[b.offset+j] = 1
		}
	}
}

// Transform returns an [len(records) x Width()] matrix.
func (e *Encoder) Transform(records []model.FeatureRecord) [][]float64 {
	out := make([][]float64, len(records))
	for i := range records {
		out[i] = make([]float64, e.width)
		e.TransformRow(&records[i], out[i])
	}
	return out
}

// Transform is a convenience wrapper for one-off use with a params set.
func Transform(records []model.FeatureRecord, p *model.CategoricalParams) ([][]float64, error) {
	e, err := NewEncoder(p)
	if err != nil {
		return nil, err
	}
	return e.Transform(records), nil
}
