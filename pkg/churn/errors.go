package churn

import (
	"errors"

	"github.com/crimson-sun/churn/internal/artifact"
	"github.com/crimson-sun/churn/internal/model"
)

var (
	// ErrArtifactMissing: the bundle or a sub-artifact cannot be located.
	// Callers usually map it to "service unavailable, retrain required".
	ErrArtifactMissing = artifact.ErrMissing

	// ErrArtifactCorrupt: the bundle decoded but its shapes are inconsistent.
	ErrArtifactCorrupt = artifact.ErrCorrupt

	// ErrShapeMismatch: a matrix width disagrees with the model.
	ErrShapeMismatch = model.ErrShapeMismatch

	// ErrPredictionFailed matches every *PredictionError.
	ErrPredictionFailed = errors.New("prediction failed")
)

// PredictionError wraps a transformer or scorer failure raised during
// Predict. The original cause stays reachable through errors.Is/As.
type PredictionError struct {
	Cause error
}

func (e *PredictionError) Error() string {
	return "churn: prediction failed: " + e.Cause.Error()
}

func (e *PredictionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrPredictionFailed.
func (e *PredictionError) Is(target error) bool {
	return target == ErrPredictionFailed
}
