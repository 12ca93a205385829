package model

import (
	"errors"
	"fmt"
	"math"
)

// Request-boundary limits. The engine itself never enforces these; negative
// or oversized values pass through numerically.
const (
	MaxTenure      = 120
	MaxNumServices = 10
)

// ErrInvalidRecord marks a record rejected at the request boundary.
var ErrInvalidRecord = errors.New("invalid record")

// Validate checks a record against the ranges accepted at the request
// boundary. Missing values are allowed.
func Validate(r FeatureRecord) error {
	var errs []error
	if r.Tenure != nil && (*r.Tenure < 0 || *r.Tenure > MaxTenure) {
		errs = append(errs, fmt.Errorf("tenure %d outside [0, %d]", *r.Tenure, MaxTenure))
	}
	if r.MonthlyCharges != nil && !nonNegative(*r.MonthlyCharges) {
		errs = append(errs, fmt.Errorf("monthly_charges %v must be a non-negative number", *r.MonthlyCharges))
	}
	if r.TotalCharges != nil && !nonNegative(*r.TotalCharges) {
		errs = append(errs, fmt.Errorf("total_charges %v must be a non-negative number", *r.TotalCharges))
	}
	if r.SupportCalls != nil && *r.SupportCalls < 0 {
		errs = append(errs, fmt.Errorf("support_calls %d must be non-negative", *r.SupportCalls))
	}
	if r.NumServices != nil && (*r.NumServices < 0 || *r.NumServices > MaxNumServices) {
		errs = append(errs, fmt.Errorf("num_services %d outside [0, %d]", *r.NumServices, MaxNumServices))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidRecord, errors.Join(errs...))
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
