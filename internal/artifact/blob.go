package artifact

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Serialized layouts of the five sub-artifacts as written by the training
// export.

type numericImputerBlob struct {
	Features []string  `json:"features"`
	Medians  []float64 `json:"medians"`
}

type numericScalerBlob struct {
	Features []string  `json:"features"`
	Means    []float64 `json:"means"`
	Stds     []float64 `json:"stds"`
}

type categoricalImputerBlob struct {
	Features []string   `json:"features"`
	Modes    []category `json:"modes"`
}

type categoricalEncoderBlob struct {
	Features   []string     `json:"features"`
	Categories [][]category `json:"categories"`
}

type modelBlob struct {
	Weights []float64 `json:"weights"`
	Bias    *float64  `json:"bias"`
}

// category accepts a JSON string or boolean. Boolean columns fitted from a
// dataframe may export their categories as JSON booleans.
type category string

func (c *category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = category(s)
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*c = category(strconv.FormatBool(b))
		return nil
	}
	return fmt.Errorf("category must be a string or boolean, got %s", data)
}

func categoryStrings(cs []category) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}
