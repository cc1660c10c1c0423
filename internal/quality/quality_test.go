package quality

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
)

var primaryColumns = []string{
	"url", "title", "authors", "rating_value", "isbn13",
	"rating_count", "review_count", "language", "num_pages", "genres", "review_count_by_lang",
}

func primaryRow(title string) models.Row {
	row := models.Row{
		"url":          models.StringCell("https://www.goodreads.com/book/show/1"),
		"authors":      models.FromAny([]any{"Frank Herbert"}),
		"rating_value": models.NumberCell(4.3),
		"isbn13":       models.StringCell("9780441013593"),
		"rating_count": models.NumberCell(1200),
		"review_count": models.NumberCell(80),
		"language":     models.StringCell("English"),
		"num_pages":    models.NumberCell(604),
		"genres":       models.FromAny([]any{"Science Fiction"}),
	}
	if title != "" {
		row["title"] = models.StringCell(title)
	}
	return row
}

func tableOf(source string, columns []string, rows ...models.Row) *models.Table {
	return &models.Table{Source: source, Columns: columns, Rows: rows}
}

func TestValidateMissingColumns(t *testing.T) {
	table := tableOf("goodreads", []string{"title", "url"})
	_, _, err := Validate(table, PrimaryRuleSet("goodreads", "q_gr_"))

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "goodreads", schemaErr.Source)
	assert.Contains(t, schemaErr.Missing, "isbn13")
	assert.NotContains(t, schemaErr.Missing, "title")
}

func TestValidatePrimaryFlags(t *testing.T) {
	bad := primaryRow("Dune")
	bad["rating_value"] = models.NumberCell(7)
	bad["isbn13"] = models.StringCell("9780441013594")
	bad["url"] = models.StringCell("goodreads.com/book")
	bad["review_count_by_lang"] = models.TextCell("{'en': -1}")

	table := tableOf("goodreads", primaryColumns, primaryRow("Dune"), bad)
	flagged, metrics, err := Validate(table, PrimaryRuleSet("goodreads", "q_gr_"))
	require.NoError(t, err)

	good := flagged.Flags[0]
	assert.True(t, good["q_gr_title_valid"])
	assert.True(t, good["q_gr_isbn13_valid"])
	assert.True(t, good["q_gr_review_by_lang_valid"], "null review counts are valid")
	assert.True(t, good[RecordValidFlag])
	assert.True(t, flagged.Valid[0])

	second := flagged.Flags[1]
	assert.False(t, second["q_gr_rating_valid"])
	assert.False(t, second["q_gr_isbn13_valid"])
	assert.True(t, second["q_gr_isbn13_not_null"])
	assert.False(t, second["q_gr_url_valid"])
	assert.False(t, second["q_gr_review_by_lang_valid"])
	assert.False(t, flagged.Valid[1])

	assert.Equal(t, 2, metrics.Rows)
	assert.Equal(t, 1, metrics.RowsValid)
	assert.InDelta(t, 1.0, metrics.Metrics["pct_title_not_null"], 1e-9)
	assert.InDelta(t, 0.5, metrics.Metrics["pct_isbn13_valid"], 1e-9)
	assert.InDelta(t, 1.0, metrics.Metrics["pct_isbn13_not_null"], 1e-9)
	assert.InDelta(t, 0.0, metrics.NullRatios["title"], 1e-9)

	// the raw row is left untouched
	assert.Equal(t, "9780441013594", table.Rows[1]["isbn13"].Text)
}

func TestValidateOptionalColumnAbsent(t *testing.T) {
	cols := []string{"url", "title", "authors", "rating_value", "isbn13", "rating_count", "review_count", "language"}
	table := tableOf("goodreads", cols, primaryRow("Dune"))
	flagged, metrics, err := Validate(table, PrimaryRuleSet("goodreads", "q_gr_"))
	require.NoError(t, err)

	assert.False(t, flagged.Flags[0]["q_gr_num_pages_valid"])
	assert.False(t, flagged.Flags[0]["q_gr_genres_valid"])
	_, watched := metrics.NullRatios["num_pages"]
	assert.False(t, watched)
}

func TestValidateSecondary(t *testing.T) {
	cols := []string{"isbn13", "url", "title", "authors", "publication_date", "language"}
	row := models.Row{
		"isbn13":           models.StringCell("9780441013593"),
		"url":              models.StringCell("https://books.google.com/books?id=x"),
		"title":            models.StringCell("Dune"),
		"authors":          models.TextCell("['Frank Herbert']"),
		"publication_date": models.StringCell("1965"),
		"language":         models.StringCell("en"),
	}
	flagged, metrics, err := Validate(tableOf("googlebooks", cols, row), SecondaryRuleSet("googlebooks", "q_gb_"))
	require.NoError(t, err)

	flags := flagged.Flags[0]
	assert.True(t, flags["q_gb_authors_not_null"])
	assert.False(t, flags["q_gb_pub_date_valid"], "year-only dates are not strict ISO days")
	assert.True(t, flags["q_gb_language_valid"])
	assert.True(t, flags["q_gb_price_amount_non_negative"], "missing price column passes")
	assert.True(t, flagged.Valid[0])
	assert.InDelta(t, 1.0, metrics.Metrics["pct_price_amount_non_negative"], 1e-9)
	assert.InDelta(t, 0.0, metrics.Metrics["pct_pub_date_valid"], 1e-9)
}

func TestGateAbortsOnNullTitles(t *testing.T) {
	table := tableOf("goodreads", primaryColumns, primaryRow("Dune"), primaryRow(""))
	_, metrics, err := Validate(table, PrimaryRuleSet("goodreads", "q_gr_"))
	require.NoError(t, err)

	err = Gate(metrics, DefaultPrimaryGate())
	var gateErr *QualityGateError
	require.True(t, errors.As(err, &gateErr))
	assert.Equal(t, "pct_title_not_null", gateErr.Metric)
	assert.InDelta(t, 0.5, gateErr.Value, 1e-9)
	assert.InDelta(t, 0.9, gateErr.Threshold, 1e-9)
	assert.Contains(t, err.Error(), "pct_title_not_null")
}

func TestGateOnlyIfPositive(t *testing.T) {
	m := &SourceMetrics{
		Source: "goodreads",
		Metrics: map[string]float64{
			"pct_title_not_null":  1.0,
			"pct_isbn13_not_null": 0.0,
			"pct_isbn13_valid":    0.0,
		},
	}
	assert.NoError(t, Gate(m, DefaultPrimaryGate()), "isbn rule is skipped when no isbn13 is present")

	m.Metrics["pct_isbn13_not_null"] = 0.5
	var gateErr *QualityGateError
	require.True(t, errors.As(Gate(m, DefaultPrimaryGate()), &gateErr))
	assert.Equal(t, "pct_isbn13_valid", gateErr.Metric)
}

func TestGateEmptyTableFails(t *testing.T) {
	_, metrics, err := Validate(tableOf("googlebooks", []string{"isbn13", "url", "title", "authors", "publication_date", "language"}), SecondaryRuleSet("googlebooks", "q_gb_"))
	require.NoError(t, err)
	assert.Equal(t, 0, metrics.Rows)
	assert.Error(t, Gate(metrics, DefaultSecondaryGate()))
}

func TestGateUnknownMetric(t *testing.T) {
	m := &SourceMetrics{Source: "goodreads", Metrics: map[string]float64{}}
	err := Gate(m, []GateRule{{Metric: "pct_missing", Min: 0.5}})
	require.Error(t, err)
	var gateErr *QualityGateError
	assert.False(t, errors.As(err, &gateErr))
}

func TestPrintSummary(t *testing.T) {
	table := tableOf("goodreads", primaryColumns, primaryRow("Dune"))
	_, metrics, err := Validate(table, PrimaryRuleSet("goodreads", "q_gr_"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, PrintSummary(&buf, metrics, nil))
	out := buf.String()
	assert.Contains(t, out, "SOURCE QUALITY SUMMARY")
	assert.Contains(t, out, "GOODREADS")
	assert.Contains(t, out, "pct_title_not_null")
	assert.Contains(t, out, "null_ratio.title")
}
