package source

import (
	"context"

	"github.com/crimson-sun/churn/internal/model"
)

// Querier reads a finite batch of feature records.
type Querier interface {
	Query(ctx context.Context) ([]model.FeatureRecord, error)
}

// Committer is implemented by streams that acknowledge records upstream.
// Commit marks every record received from the stream so far as processed.
// The pipeline calls it only after those records are written.
type Committer interface {
	Commit(ctx context.Context) error
}

// Streamer emits feature records until the source is exhausted or ctx is
// cancelled. The returned channel is closed when the stream ends.
type Streamer interface {
	Stream(ctx context.Context) (<-chan model.FeatureRecord, error)
}
