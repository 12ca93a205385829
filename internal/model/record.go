package model

// FeatureRecord is one customer's raw input. Sources produce it and the
// engine consumes it. A nil field is a missing value; categorical fields may
// also hold values never seen in training.
type FeatureRecord struct {
	CustomerID      string   `json:"customer_id,omitempty"`
	Tenure          *int     `json:"tenure"`
	MonthlyCharges  *float64 `json:"monthly_charges"`
	TotalCharges    *float64 `json:"total_charges"`
	ContractType    *string  `json:"contract_type"`
	PaymentMethod   *string  `json:"payment_method"`
	InternetService *string  `json:"internet_service"`
	Streaming       *bool    `json:"streaming"`
	TechSupport     *bool    `json:"tech_support"`
	SupportCalls    *int     `json:"support_calls"`
	NumServices     *int     `json:"num_services"`
}

// Int, Float, String and Bool return pointers for building records inline.
func Int(v int) *int           { return &v }
func Float(v float64) *float64 { return &v }
func String(v string) *string  { return &v }
func Bool(v bool) *bool        { return &v }
