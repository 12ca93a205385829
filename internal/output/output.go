package output

import (
	"context"

	"github.com/crimson-sun/churn/internal/model"
)

// Output defines the interface for scored record destinations.
type Output interface {
	Write(ctx context.Context, rec model.ScoredRecord) error
	Close() error
}
