package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_Formats(t *testing.T) {
	assert.Equal(t, []string{"csv", "json", "ndjson"}, Formats())

	for _, f := range Formats() {
		d, err := Get(f)
		require.NoError(t, err, f)
		assert.NotNil(t, d, f)
	}

	_, err := Get("parquet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parquet")
}

func TestDecodeJSON_Array(t *testing.T) {
	records, err := DecodeJSON(strings.NewReader(`[
		{"customer_id":"C-1","tenure":12,"monthly_charges":720.5,"streaming":false},
		{"customer_id":"C-2","tenure":null,"contract_type":"two-year"}
	]`))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "C-1", records[0].CustomerID)
	require.NotNil(t, records[0].Tenure)
	assert.Equal(t, 12, *records[0].Tenure)
	require.NotNil(t, records[0].MonthlyCharges)
	assert.Equal(t, 720.5, *records[0].MonthlyCharges)
	require.NotNil(t, records[0].Streaming)
	assert.False(t, *records[0].Streaming)

	assert.Nil(t, records[1].Tenure, "null is a missing value")
	assert.Nil(t, records[1].TotalCharges, "absent is a missing value")
	require.NotNil(t, records[1].ContractType)
	assert.Equal(t, "two-year", *records[1].ContractType)
}

func TestDecodeJSON_Envelope(t *testing.T) {
	records, err := DecodeJSON(strings.NewReader(`{"records":[{"tenure":1},{"tenure":2}]}`))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, *records[1].Tenure)

	records, err = DecodeJSON(strings.NewReader(`{"records":[]}`))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDecodeJSON_Errors(t *testing.T) {
	tests := []struct {
		name, input, want string
	}{
		{"empty", "  ", "empty"},
		{"no records field", `{"rows":[]}`, "records"},
		{"bad array", `[{"tenure":"twelve"}]`, "array"},
		{"bad object", `{"records":`, "object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecodeNDJSON(t *testing.T) {
	input := `{"customer_id":"C-1","support_calls":4}

{"customer_id":"C-2","tech_support":true}
`
	records, err := DecodeNDJSON(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 4, *records[0].SupportCalls)
	assert.True(t, *records[1].TechSupport)
}

func TestDecodeNDJSON_BadLine(t *testing.T) {
	_, err := DecodeNDJSON(strings.NewReader("{\"tenure\":1}\n{oops}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestDecodeCSV(t *testing.T) {
	input := `customer_id,tenure,monthly_charges,total_charges,contract_type,payment_method,internet_service,streaming,tech_support,support_calls,num_services,churn
C-1,12,720.5,8646,month-to-month,upi,fiber,True,false,3,4,1
C-2,,,,two-year,,none,,,,,0
`
	records, err := DecodeCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	r := records[0]
	assert.Equal(t, "C-1", r.CustomerID)
	assert.Equal(t, 12, *r.Tenure)
	assert.Equal(t, 720.5, *r.MonthlyCharges)
	assert.Equal(t, 8646.0, *r.TotalCharges)
	assert.Equal(t, "upi", *r.PaymentMethod)
	assert.True(t, *r.Streaming)
	assert.False(t, *r.TechSupport)
	assert.Equal(t, 4, *r.NumServices)

	r = records[1]
	assert.Nil(t, r.Tenure)
	assert.Nil(t, r.PaymentMethod)
	assert.Nil(t, r.Streaming)
	assert.Equal(t, "none", *r.InternetService)
}

func TestDecodeCSV_ColumnOrderAndCase(t *testing.T) {
	records, err := DecodeCSV(strings.NewReader("Tech_Support, Tenure\nno_such_bool,5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tech_support")
	assert.Nil(t, records)

	records, err = DecodeCSV(strings.NewReader("Num_Services, Tenure\n2,5\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 5, *records[0].Tenure)
	assert.Equal(t, 2, *records[0].NumServices)
}

func TestDecodeCSV_Errors(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader("tenure\nabc\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "tenure")

	_, err = DecodeCSV(strings.NewReader("tenure,num_services\n1\n"))
	require.Error(t, err, "ragged rows are rejected")
}

func TestDecodeCSV_Empty(t *testing.T) {
	records, err := DecodeCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = DecodeCSV(strings.NewReader("tenure,num_services\n"))
	require.NoError(t, err)
	assert.Empty(t, records)
}
