package quality

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// SourceMetrics aggregates the quality flags of one source table
type SourceMetrics struct {
	Source     string             `json:"source" yaml:"source"`
	Rows       int                `json:"rows" yaml:"rows"`
	RowsValid  int                `json:"rows_valid" yaml:"rows_valid"`
	PassRates  map[string]float64 `json:"pass_rates" yaml:"pass_rates"`
	Metrics    map[string]float64 `json:"metrics" yaml:"metrics"`
	NullRatios map[string]float64 `json:"null_ratios" yaml:"null_ratios"`
}

// Value looks up a named metric or a flag pass rate
func (m *SourceMetrics) Value(name string) (float64, bool) {
	if v, ok := m.Metrics[name]; ok {
		return v, true
	}
	v, ok := m.PassRates[name]
	return v, ok
}

// Aggregate computes pass rates, named metrics and null ratios.
// An empty table yields zero rates.
func Aggregate(flagged *FlaggedTable, rs RuleSet) *SourceMetrics {
	m := &SourceMetrics{
		Source:     rs.Source,
		Rows:       len(flagged.Flags),
		PassRates:  make(map[string]float64, len(rs.Rules)+1),
		Metrics:    make(map[string]float64, len(rs.Metrics)),
		NullRatios: make(map[string]float64, len(rs.NullWatch)),
	}

	passes := make(map[string]int, len(rs.Rules)+1)
	for i, flags := range flagged.Flags {
		for name, ok := range flags {
			if ok {
				passes[name]++
			}
		}
		if flagged.Valid[i] {
			m.RowsValid++
		}
	}

	names := make([]string, 0, len(rs.Rules)+1)
	for _, rule := range rs.Rules {
		names = append(names, rs.FlagName(rule.Flag))
	}
	names = append(names, RecordValidFlag)
	for _, name := range names {
		m.PassRates[name] = ratio(passes[name], m.Rows)
	}

	for _, metric := range rs.Metrics {
		m.Metrics[metric.Name] = m.PassRates[rs.FlagName(metric.Flag)]
	}

	table := flagged.Table
	for _, col := range rs.NullWatch {
		if !table.HasColumn(col) {
			continue
		}
		nulls := 0
		for _, row := range table.Rows {
			if row.Get(col).IsNull() {
				nulls++
			}
		}
		m.NullRatios[col] = ratio(nulls, len(table.Rows))
	}

	return m
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(n) / float64(total)
}

// PrintSummary writes a human-readable quality report for each source
func PrintSummary(w io.Writer, sources ...*SourceMetrics) error {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 70))
	fmt.Fprintln(w, "SOURCE QUALITY SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 70))

	for _, m := range sources {
		if m == nil {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", strings.ToUpper(m.Source))
		fmt.Fprintln(w, strings.Repeat("-", 70))
		fmt.Fprintf(w, "Rows: %d\n", m.Rows)
		fmt.Fprintf(w, "Valid Rows: %d (%.1f%%)\n", m.RowsValid, ratio(m.RowsValid, m.Rows)*100)

		table := tablewriter.NewTable(w)
		table.Header("Metric", "Value")
		for _, name := range sortedKeys(m.Metrics) {
			if err := table.Append(name, fmt.Sprintf("%.4f", m.Metrics[name])); err != nil {
				return fmt.Errorf("failed to append metric row: %w", err)
			}
		}
		for _, name := range sortedKeys(m.PassRates) {
			if err := table.Append(name, fmt.Sprintf("%.4f", m.PassRates[name])); err != nil {
				return fmt.Errorf("failed to append flag row: %w", err)
			}
		}
		for _, col := range sortedKeys(m.NullRatios) {
			if err := table.Append("null_ratio."+col, fmt.Sprintf("%.4f", m.NullRatios[col])); err != nil {
				return fmt.Errorf("failed to append null ratio row: %w", err)
			}
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render quality table: %w", err)
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", 70))
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
