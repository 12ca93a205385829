package artifact

import (
	"context"
	"errors"

	"github.com/crimson-sun/churn/internal/model"
)

var (
	// ErrMissing reports that the bundle or one of its sub-artifacts cannot
	// be located. It is not retried internally.
	ErrMissing = errors.New("artifact missing")

	// ErrCorrupt reports a sub-artifact that could not be decoded or a
	// parameter set whose shapes are inconsistent.
	ErrCorrupt = errors.New("artifact corrupt")
)

// Sub-artifact file names, located by role inside a bundle directory.
const (
	NumericImputerFile     = "numeric_imputer.json"
	NumericScalerFile      = "numeric_scaler.json"
	CategoricalImputerFile = "categorical_imputer.json"
	CategoricalEncoderFile = "categorical_encoder.json"
	ModelFile              = "model.json"
	ManifestFile           = "manifest.yaml"
)

// Files lists the five required sub-artifacts.
var Files = []string{
	NumericImputerFile,
	NumericScalerFile,
	CategoricalImputerFile,
	CategoricalEncoderFile,
	ModelFile,
}

// Loader deserializes a complete parameter bundle. Implementations either
// return every sub-artifact or an error; never a partial bundle.
type Loader interface {
	Load(ctx context.Context) (*model.Params, error)
}

// StaticLoader serves an in-memory bundle. Useful for tests and for callers
// that embed parameters in the binary.
type StaticLoader struct {
	Params *model.Params
}

// Load returns the wrapped params, or ErrMissing when none were provided.
func (l StaticLoader) Load(ctx context.Context) (*model.Params, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.Params == nil {
		return nil, ErrMissing
	}
	return l.Params, nil
}
