package multi

import (
	"context"
	"errors"

	"github.com/crimson-sun/churn/internal/model"
	"github.com/crimson-sun/churn/internal/output"
)

// Multi fans out scored records to several outputs. Each Write delivers the
// record to every wrapped output in order; one failing output does not stop
// delivery to the rest.
type Multi struct {
	outputs []output.Output
}

// New creates a Multi that fans out to the given outputs.
func New(outputs ...output.Output) *Multi {
	return &Multi{outputs: outputs}
}

// Write delivers rec to every wrapped output and joins their errors.
func (m *Multi) Write(ctx context.Context, rec model.ScoredRecord) error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Write(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every wrapped output and joins their errors.
func (m *Multi) Close() error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
