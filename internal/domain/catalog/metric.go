package catalog

import (
	"encoding/json"
	"strconv"
)

// Sentinel labels used when a metric cannot be computed
const (
	LabelNoBuybox = "No Buybox"
	LabelNA       = "N/A"
)

// Metric is a derived number that may instead carry a sentinel label
// explaining why no number exists.
type Metric struct {
	Value float64
	Label string
}

// MetricValue returns a numeric metric
func MetricValue(v float64) Metric {
	return Metric{Value: v}
}

// MetricLabel returns a sentinel metric
func MetricLabel(label string) Metric {
	return Metric{Label: label}
}

// IsNumber returns true if the metric holds a number
func (m Metric) IsNumber() bool {
	return m.Label == ""
}

// String formats the metric with two decimals, or returns its label
func (m Metric) String() string {
	if m.Label != "" {
		return m.Label
	}
	return strconv.FormatFloat(m.Value, 'f', 2, 64)
}

// MarshalJSON encodes numbers as JSON numbers and sentinels as strings
func (m Metric) MarshalJSON() ([]byte, error) {
	if m.Label != "" {
		return json.Marshal(m.Label)
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON accepts either a number or a sentinel string
func (m *Metric) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*m = Metric{Label: label}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Metric{Value: v}
	return nil
}
