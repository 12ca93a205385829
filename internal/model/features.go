package model

import "strconv"

// Feature names known to the serving path. Artifacts select and order a
// subset of these; the order is never derived from an incoming record.
const (
	FeatureTenure          = "tenure"
	FeatureMonthlyCharges  = "monthly_charges"
	FeatureTotalCharges    = "total_charges"
	FeatureSupportCalls    = "support_calls"
	FeatureNumServices     = "num_services"
	FeatureContractType    = "contract_type"
	FeaturePaymentMethod   = "payment_method"
	FeatureInternetService = "internet_service"
	FeatureStreaming       = "streaming"
	FeatureTechSupport     = "tech_support"
)

// NumericFeatures is the numeric column order used at training time.
var NumericFeatures = []string{
	FeatureTenure,
	FeatureMonthlyCharges,
	FeatureTotalCharges,
	FeatureSupportCalls,
	FeatureNumServices,
}

// CategoricalFeatures is the categorical column order used at training time.
var CategoricalFeatures = []string{
	FeatureContractType,
	FeaturePaymentMethod,
	FeatureInternetService,
	FeatureStreaming,
	FeatureTechSupport,
}

// NumericField reads a numeric feature from a record. ok is false when the
// value is missing.
type NumericField func(r *FeatureRecord) (v float64, ok bool)

// CategoricalField reads a categorical feature from a record in its string
// form. Boolean fields render as "true"/"false".
type CategoricalField struct {
	Boolean bool
	Get     func(r *FeatureRecord) (v string, ok bool)
}

var numericFields = map[string]NumericField{
	FeatureTenure:         func(r *FeatureRecord) (float64, bool) { return intValue(r.Tenure) },
	FeatureMonthlyCharges: func(r *FeatureRecord) (float64, bool) { return floatValue(r.MonthlyCharges) },
	FeatureTotalCharges:   func(r *FeatureRecord) (float64, bool) { return floatValue(r.TotalCharges) },
	FeatureSupportCalls:   func(r *FeatureRecord) (float64, bool) { return intValue(r.SupportCalls) },
	FeatureNumServices:    func(r *FeatureRecord) (float64, bool) { return intValue(r.NumServices) },
}

var categoricalFields = map[string]CategoricalField{
	FeatureContractType:    {Get: func(r *FeatureRecord) (string, bool) { return stringValue(r.ContractType) }},
	FeaturePaymentMethod:   {Get: func(r *FeatureRecord) (string, bool) { return stringValue(r.PaymentMethod) }},
	FeatureInternetService: {Get: func(r *FeatureRecord) (string, bool) { return stringValue(r.InternetService) }},
	FeatureStreaming:       {Boolean: true, Get: func(r *FeatureRecord) (string, bool) { return boolValue(r.Streaming) }},
	FeatureTechSupport:     {Boolean: true, Get: func(r *FeatureRecord) (string, bool) { return boolValue(r.TechSupport) }},
}

// LookupNumeric returns the accessor for a numeric feature name.
func LookupNumeric(name string) (NumericField, bool) {
	f, ok := numericFields[name]
	return f, ok
}

// LookupCategorical returns the accessor for a categorical feature name.
func LookupCategorical(name string) (CategoricalField, bool) {
	f, ok := categoricalFields[name]
	return f, ok
}

func intValue(p *int) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return float64(*p), true
}

func floatValue(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func stringValue(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	return *p, true
}

func boolValue(p *bool) (string, bool) {
	if p == nil {
		return "", false
	}
	return strconv.FormatBool(*p), true
}
