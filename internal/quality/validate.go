package quality

import (
	"log/slog"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
)

// FlaggedTable is a source table with one flag set per row.
// The table itself is left untouched.
type FlaggedTable struct {
	Table *models.Table
	Flags []models.QualityFlags
	Valid []bool
}

// CheckRequired fails with a *SchemaError when any required column is missing
func CheckRequired(table *models.Table, rs RuleSet) error {
	var missing []string
	for _, col := range rs.Required {
		if !table.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Source: rs.Source, Missing: missing}
	}
	return nil
}

// Validate applies the rule set to every row and aggregates the metrics
func Validate(table *models.Table, rs RuleSet) (*FlaggedTable, *SourceMetrics, error) {
	if err := CheckRequired(table, rs); err != nil {
		return nil, nil, err
	}

	flagged := &FlaggedTable{
		Table: table,
		Flags: make([]models.QualityFlags, len(table.Rows)),
		Valid: make([]bool, len(table.Rows)),
	}

	present := make(map[string]bool, len(rs.Rules))
	for _, rule := range rs.Rules {
		present[rule.Column] = table.HasColumn(rule.Column)
	}

	for i, row := range table.Rows {
		flags := make(models.QualityFlags, len(rs.Rules)+1)
		for _, rule := range rs.Rules {
			name := rs.FlagName(rule.Flag)
			if !present[rule.Column] {
				flags[name] = rule.WhenMissing
				continue
			}
			flags[name] = rule.Check(row.Get(rule.Column))
		}

		valid := true
		for _, flag := range rs.Validity {
			valid = valid && flags[rs.FlagName(flag)]
		}
		flags[RecordValidFlag] = valid

		flagged.Flags[i] = flags
		flagged.Valid[i] = valid
	}

	metrics := Aggregate(flagged, rs)
	slog.Debug("Validated source table",
		"source", rs.Source,
		"rows", metrics.Rows,
		"rows_valid", metrics.RowsValid)

	return flagged, metrics, nil
}
