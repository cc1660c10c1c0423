package quality

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns missing from a source table
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("[%s] missing required columns: %s", e.Source, strings.Join(e.Missing, ", "))
}

// QualityGateError reports the first gate rule a source failed
type QualityGateError struct {
	Source    string
	Metric    string
	Value     float64
	Threshold float64
}

func (e *QualityGateError) Error() string {
	return fmt.Sprintf("[%s] quality gate failed: %s=%.4f below minimum %.4f", e.Source, e.Metric, e.Value, e.Threshold)
}
