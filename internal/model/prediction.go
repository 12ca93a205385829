package model

import "time"

// PredictionResult is the scored outcome for one record.
type PredictionResult struct {
	Probability float64 `json:"churn_probability"`
	Label       int     `json:"churn_label"`
}

// ScoredRecord is what outputs receive: the input, its prediction, and the
// bundle version that produced it.
type ScoredRecord struct {
	ID           string           `json:"prediction_id,omitempty"`
	CustomerID   string           `json:"customer_id,omitempty"`
	Record       *FeatureRecord   `json:"record,omitempty"`
	Prediction   PredictionResult `json:"prediction"`
	RiskLevel    string           `json:"risk_level"`
	ModelVersion string           `json:"model_version"`
	ScoredAt     time.Time        `json:"scored_at"`
}

// Risk levels attached to scored records.
const (
	RiskHigh   = "high"
	RiskMedium = "medium"
	RiskLow    = "low"
)

// RiskLevel buckets a churn probability.
func RiskLevel(p float64) string {
	switch {
	case p >= 0.7:
		return RiskHigh
	case p >= 0.4:
		return RiskMedium
	default:
		return RiskLow
	}
}
