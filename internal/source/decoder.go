package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/crimson-sun/churn/internal/model"
)

// Decoder turns an encoded payload into feature records.
type Decoder func(r io.Reader) ([]model.FeatureRecord, error)

var registry = map[string]Decoder{
	"json":   DecodeJSON,
	"ndjson": DecodeNDJSON,
	"csv":    DecodeCSV,
}

// Get returns the decoder registered for the given format.
func Get(format string) (Decoder, error) {
	d, ok := registry[format]
	if !ok {
		return nil, fmt.Errorf("unknown source format: %s", format)
	}
	return d, nil
}

// Formats returns the registered format names in sorted order.
func Formats() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DecodeJSON accepts either a bare array of records or an envelope of the
// form {"records": [...]}.
func DecodeJSON(r io.Reader) ([]model.FeatureRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("source: read json: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("source: empty json payload")
	}

	if data[0] == '[' {
		var records []model.FeatureRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("source: decode json array: %w", err)
		}
		return records, nil
	}

	var envelope struct {
		Records *[]model.FeatureRecord `json:"records"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("source: decode json object: %w", err)
	}
	if envelope.Records == nil {
		return nil, errors.New(`source: json object has no "records" field`)
	}
	return *envelope.Records, nil
}

const maxLineSize = 1 << 20

// DecodeNDJSON reads one JSON record per line. Blank lines are skipped.
func DecodeNDJSON(r io.Reader) ([]model.FeatureRecord, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var records []model.FeatureRecord
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var rec model.FeatureRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("source: ndjson line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("source: read ndjson: %w", err)
	}
	return records, nil
}

// csvSetters maps a header name to the field it fills. Unknown columns,
// such as a training label, are ignored.
var csvSetters = map[string]func(rec *model.FeatureRecord, v string) error{
	"customer_id": func(rec *model.FeatureRecord, v string) error {
		rec.CustomerID = v
		return nil
	},
	model.FeatureTenure:          setInt(func(r *model.FeatureRecord) **int { return &r.Tenure }),
	model.FeatureMonthlyCharges:  setFloat(func(r *model.FeatureRecord) **float64 { return &r.MonthlyCharges }),
	model.FeatureTotalCharges:    setFloat(func(r *model.FeatureRecord) **float64 { return &r.TotalCharges }),
	model.FeatureContractType:    setString(func(r *model.FeatureRecord) **string { return &r.ContractType }),
	model.FeaturePaymentMethod:   setString(func(r *model.FeatureRecord) **string { return &r.PaymentMethod }),
	model.FeatureInternetService: setString(func(r *model.FeatureRecord) **string { return &r.InternetService }),
	model.FeatureStreaming:       setBool(func(r *model.FeatureRecord) **bool { return &r.Streaming }),
	model.FeatureTechSupport:     setBool(func(r *model.FeatureRecord) **bool { return &r.TechSupport }),
	model.FeatureSupportCalls:    setInt(func(r *model.FeatureRecord) **int { return &r.SupportCalls }),
	model.FeatureNumServices:     setInt(func(r *model.FeatureRecord) **int { return &r.NumServices }),
}

// DecodeCSV reads a header row naming the columns followed by one record
// per row. An empty cell is a missing value.
func DecodeCSV(r io.Reader) ([]model.FeatureRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("source: csv header: %w", err)
	}
	for i, name := range header {
		header[i] = strings.ToLower(strings.TrimSpace(name))
	}

	var records []model.FeatureRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("source: csv: %w", err)
		}
		line, _ := cr.FieldPos(0)

		var rec model.FeatureRecord
		for i, cell := range row {
			set, ok := csvSetters[header[i]]
			if !ok {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if err := set(&rec, cell); err != nil {
				return nil, fmt.Errorf("source: csv line %d: column %s: %w", line, header[i], err)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func setInt(field func(*model.FeatureRecord) **int) func(*model.FeatureRecord, string) error {
	return func(rec *model.FeatureRecord, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(rec) = &n
		return nil
	}
}

func setFloat(field func(*model.FeatureRecord) **float64) func(*model.FeatureRecord, string) error {
	return func(rec *model.FeatureRecord, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*field(rec) = &f
		return nil
	}
}

func setString(field func(*model.FeatureRecord) **string) func(*model.FeatureRecord, string) error {
	return func(rec *model.FeatureRecord, v string) error {
		*field(rec) = &v
		return nil
	}
}

func setBool(field func(*model.FeatureRecord) **bool) func(*model.FeatureRecord, string) error {
	return func(rec *model.FeatureRecord, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(rec) = &b
		return nil
	}
}
