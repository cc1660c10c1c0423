package quality

import (
	"fmt"
	"log/slog"
)

// GateRule is one minimum-threshold assertion on a source metric.
// When OnlyIfPositive names a metric, the rule applies only while that metric is > 0.
type GateRule struct {
	Metric         string  `koanf:"metric" json:"metric" yaml:"metric" validate:"required"`
	Min            float64 `koanf:"min" json:"min" yaml:"min" validate:"gte=0,lte=1"`
	OnlyIfPositive string  `koanf:"only_if_positive" json:"only_if_positive,omitempty" yaml:"only_if_positive,omitempty"`
}

// DefaultPrimaryGate is the built-in gate for the scraped catalog
func DefaultPrimaryGate() []GateRule {
	return []GateRule{
		{Metric: "pct_title_not_null", Min: 0.90},
		{Metric: "pct_isbn13_valid", Min: 0.80, OnlyIfPositive: "pct_isbn13_not_null"},
	}
}

// DefaultSecondaryGate is the built-in gate for the bibliographic API
func DefaultSecondaryGate() []GateRule {
	return []GateRule{
		{Metric: "pct_title_not_null", Min: 0.90},
	}
}

// Gate checks rules in order and returns a *QualityGateError for the first failure
func Gate(m *SourceMetrics, rules []GateRule) error {
	for _, rule := range rules {
		if rule.OnlyIfPositive != "" {
			cond, ok := m.Value(rule.OnlyIfPositive)
			if !ok {
				return fmt.Errorf("failed to evaluate gate for %s: unknown metric %q", m.Source, rule.OnlyIfPositive)
			}
			if cond <= 0 {
				slog.Debug("Skipping gate rule", "source", m.Source, "metric", rule.Metric, "condition", rule.OnlyIfPositive)
				continue
			}
		}
		value, ok := m.Value(rule.Metric)
		if !ok {
			return fmt.Errorf("failed to evaluate gate for %s: unknown metric %q", m.Source, rule.Metric)
		}
		if value < rule.Min {
			return &QualityGateError{
				Source:    m.Source,
				Metric:    rule.Metric,
				Value:     value,
				Threshold: rule.Min,
			}
		}
	}
	return nil
}
