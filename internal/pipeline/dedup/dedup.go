package dedup

import "github.com/crimson-sun/churn/internal/model"

// Collapse merges records that share a customer id, keeping the most recent
// record for each id at the position where the id first appeared. Records
// without a customer id are never merged. It returns the collapsed batch and
// the number of records that were superseded.
func Collapse(records []model.FeatureRecord) ([]model.FeatureRecord, int) {
	if len(records) == 0 {
		return nil, 0
	}

	out := make([]model.FeatureRecord, 0, len(records))
	index := make(map[string]int, len(records))
	merged := 0

	for _, r := range records {
		if r.CustomerID == "" {
			out = append(out, r)
			continue
		}
		if i, ok := index[r.CustomerID]; ok {
			out[i] = r
			merged++
			continue
		}
		index[r.CustomerID] = len(out)
		out = append(out, r)
	}
	return out, merged
}
