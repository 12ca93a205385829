package output

import "github.com/crimson-sun/churn/internal/model"

// Verbosity controls how much of a scored record is emitted.
type Verbosity int

const (
	// Minimal emits the prediction, risk level and identity only.
	Minimal Verbosity = iota
	// Full also echoes the input features.
	Full
)

// ParseVerbosity maps "minimal" to Minimal; anything else is Full.
func ParseVerbosity(s string) Verbosity {
	if s == "minimal" {
		return Minimal
	}
	return Full
}

// FormatRecord returns a copy of the record with fields stripped according
// to verbosity. At Minimal the input features are dropped (omitted from JSON
// via omitempty).
func FormatRecord(rec model.ScoredRecord, verbosity Verbosity) model.ScoredRecord {
	if verbosity == Minimal {
		rec.Record = nil
	}
	return rec
}
