package pipeline

import (
	"errors"
	"log/slog"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/normalize"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/quality"
)

// step normalizes one cell into a record field
type step func(n *normalizer, rec *models.SourceRecord, c models.Cell) error

// field binds a record field to the columns it may be read from, in order
// of preference, and the step that normalizes it.
type field struct {
	Name    string
	Columns []string
	Apply   step
}

// fields is the normalize stage. Adding a record field only touches this table.
var fields = []field{
	{Name: "id", Columns: []string{"id", "volume_id", "source_id"}, Apply: textInto(func(r *models.SourceRecord) **string { return &r.ID })},
	{Name: "isbn13", Columns: []string{"isbn13", "isbn_13"}, Apply: stringInto(normalize.ISBN13, func(r *models.SourceRecord) **string { return &r.ISBN13 })},
	{Name: "isbn", Columns: []string{"isbn", "isbn10", "isbn_10"}, Apply: stringInto(normalize.ISBN, func(r *models.SourceRecord) **string { return &r.ISBN })},
	{Name: "title", Columns: []string{"title"}, Apply: textInto(func(r *models.SourceRecord) **string { return &r.Title })},
	{Name: "authors", Columns: []string{"authors", "author"}, Apply: listInto(func(r *models.SourceRecord) *[]string { return &r.Authors })},
	{Name: "publisher", Columns: []string{"publisher"}, Apply: textInto(func(r *models.SourceRecord) **string { return &r.Publisher })},
	{Name: "language", Columns: []string{"language", "language_code"}, Apply: applyLanguage},
	{Name: "genres", Columns: []string{"genres", "categories"}, Apply: listInto(func(r *models.SourceRecord) *[]string { return &r.Genres })},
	{Name: "num_pages", Columns: []string{"num_pages", "page_count", "pages"}, Apply: numberInto(func(r *models.SourceRecord) **float64 { return &r.NumPages })},
	{Name: "publication_date", Columns: []string{"publication_date", "published_date", "pub_date"}, Apply: stringInto(normalize.Date, func(r *models.SourceRecord) **string { return &r.PublicationDate })},
	{Name: "publication_timestamp", Columns: []string{"publication_timestamp"}, Apply: numberInto(func(r *models.SourceRecord) **float64 { return &r.PublicationTimestamp })},
	{Name: "pub_info", Columns: []string{"pub_info"}, Apply: textInto(func(r *models.SourceRecord) **string { return &r.PubInfo })},
	{Name: "format", Columns: []string{"format"}, Apply: textInto(func(r *models.SourceRecord) **string { return &r.Format })},
	{Name: "rating_value", Columns: []string{"rating_value", "average_rating", "rating"}, Apply: numberInto(func(r *models.SourceRecord) **float64 { return &r.RatingValue })},
	{Name: "rating_count", Columns: []string{"rating_count", "ratings_count"}, Apply: numberInto(func(r *models.SourceRecord) **float64 { return &r.RatingCount })},
	{Name: "review_count", Columns: []string{"review_count", "reviews_count"}, Apply: numberInto(func(r *models.SourceRecord) **float64 { return &r.ReviewCount })},
	{Name: "review_count_by_lang", Columns: []string{"review_count_by_lang"}, Apply: applyReviewsByLang},
	{Name: "price", Columns: []string{"price", "price_amount"}, Apply: numberInto(func(r *models.SourceRecord) **float64 { return &r.Price })},
	{Name: "currency", Columns: []string{"currency", "price_currency", "currency_code"}, Apply: stringInto(normalize.Currency, func(r *models.SourceRecord) **string { return &r.Currency })},
	{Name: "cover", Columns: []string{"cover", "cover_url", "thumbnail"}, Apply: textInto(func(r *models.SourceRecord) **string { return &r.Cover })},
	{Name: "url", Columns: []string{"url", "info_link"}, Apply: textInto(func(r *models.SourceRecord) **string { return &r.URL })},
	{Name: "description", Columns: []string{"description", "desc"}, Apply: textInto(func(r *models.SourceRecord) **string { return &r.Description })},
	{Name: "comments", Columns: []string{"comments"}, Apply: applyComments},
}

func stringInto(fn func(models.Cell) (string, error), dst func(*models.SourceRecord) **string) step {
	return func(_ *normalizer, rec *models.SourceRecord, c models.Cell) error {
		s, err := fn(c)
		if err != nil {
			return err
		}
		*dst(rec) = &s
		return nil
	}
}

func textInto(dst func(*models.SourceRecord) **string) step {
	return stringInto(normalize.Text, dst)
}

func numberInto(dst func(*models.SourceRecord) **float64) step {
	return func(_ *normalizer, rec *models.SourceRecord, c models.Cell) error {
		f, err := normalize.Number(c)
		if err != nil {
			return err
		}
		*dst(rec) = &f
		return nil
	}
}

func listInto(dst func(*models.SourceRecord) *[]string) step {
	return func(_ *normalizer, rec *models.SourceRecord, c models.Cell) error {
		items, err := normalize.List(c)
		if err != nil {
			return err
		}
		*dst(rec) = items
		return nil
	}
}

func applyLanguage(n *normalizer, rec *models.SourceRecord, c models.Cell) error {
	lang, err := n.languages.Normalize(c)
	if err != nil {
		return err
	}
	rec.Language = &lang
	return nil
}

func applyReviewsByLang(_ *normalizer, rec *models.SourceRecord, c models.Cell) error {
	m, err := normalize.Mapping(c)
	if err != nil {
		return err
	}
	rec.ReviewCountByLang = m
	return nil
}

func applyComments(_ *normalizer, rec *models.SourceRecord, c models.Cell) error {
	comments, err := normalize.Comments(c)
	if err != nil {
		return err
	}
	rec.Comments = comments
	return nil
}

// normalizer turns flagged rows into source records and counts, per field,
// the cells that were present but could not be parsed.
type normalizer struct {
	languages normalize.LanguageTable
	failures  map[string]int
}

func newNormalizer(languages normalize.LanguageTable) *normalizer {
	return &normalizer{languages: languages, failures: make(map[string]int)}
}

// records normalizes every row of a flagged table
func (n *normalizer) records(flagged *quality.FlaggedTable) []models.SourceRecord {
	table := flagged.Table
	out := make([]models.SourceRecord, len(table.Rows))
	for i, row := range table.Rows {
		rec := &out[i]
		rec.Source = table.Source
		rec.SourceFile = table.File
		rec.IngestedAt = table.IngestedAt
		rec.Index = i
		rec.Raw = row
		rec.Flags = flagged.Flags[i]
		rec.Valid = flagged.Valid[i]

		for _, f := range fields {
			c, ok := pickCell(row, f.Columns)
			if !ok {
				continue
			}
			if err := f.Apply(n, rec, c); err != nil && !errors.Is(err, normalize.ErrEmpty) {
				n.failures[f.Name]++
				slog.Debug("Field parse failed",
					"source", table.Source,
					"row", i,
					"field", f.Name,
					"error", err)
			}
		}
		n.derive(rec)
	}
	return out
}

// derive fills the publication date from the scraped pub-info text or the
// epoch timestamp when no date column supplied one.
func (n *normalizer) derive(rec *models.SourceRecord) {
	if rec.PublicationDate != nil {
		return
	}
	if rec.PubInfo != nil {
		if d, err := normalize.DateString(*rec.PubInfo); err == nil {
			rec.PublicationDate = &d
			return
		}
	}
	if rec.PublicationTimestamp != nil {
		if d, err := normalize.EpochMillis(models.NumberCell(*rec.PublicationTimestamp)); err == nil {
			rec.PublicationDate = &d
		}
	}
}

// pickCell returns the first candidate column holding a value
func pickCell(row models.Row, columns []string) (models.Cell, bool) {
	for _, col := range columns {
		if c := row.Get(col); !c.IsAbsent() {
			return c, true
		}
	}
	return models.Absent(), false
}
