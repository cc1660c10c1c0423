package merge

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/goccy/go-json"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
)

// SourceWinnerMerged marks a row built from both sources
const SourceWinnerMerged = "merged"

// ErrNoRecords is returned when Merge gets neither side
var ErrNoRecords = errors.New("merge needs at least one record")

// Provenance records which source supplied each merged field
type Provenance struct {
	Fields  map[string]string `json:"fields"`
	Sources []SourceRef       `json:"sources"`
}

// SourceRef identifies one contributing source record
type SourceRef struct {
	Source string `json:"source"`
	ID     string `json:"id,omitempty"`
	File   string `json:"file"`
	Row    int    `json:"row"`
}

// winners collects the source that supplied each field of a merged pair
type winners struct {
	names  [3]string // indexed by side
	fields map[string]string
}

func (w *winners) record(field string, s side) {
	if s != neither {
		w.fields[field] = w.names[s]
	}
}

func (w *winners) str(field string, a, b *string) *string {
	v, s := pickString(a, b)
	w.record(field, s)
	return v
}

func (w *winners) num(field string, a, b *float64) *float64 {
	v, s := pickNumber(a, b)
	w.record(field, s)
	return v
}

func (w *winners) list(field string, a, b []string) []string {
	v := MergeLists(a, b)
	switch {
	case len(v) == 0:
	case len(a) > 0 && len(b) > 0:
		w.fields[field] = SourceWinnerMerged
	case len(a) > 0:
		w.record(field, first)
	default:
		w.record(field, second)
	}
	return v
}

// Merge builds one canonical book from a primary and a secondary record.
// Either may be nil; with one side its normalized values pass through.
// BookID and MatchedBy are left to the caller.
func Merge(primary, secondary *models.SourceRecord) (*models.CanonicalBook, error) {
	switch {
	case primary == nil && secondary == nil:
		return nil, ErrNoRecords
	case secondary == nil:
		return single(primary)
	case primary == nil:
		return single(secondary)
	}

	w := &winners{
		names:  [3]string{"", primary.Source, secondary.Source},
		fields: make(map[string]string),
	}
	book := &models.CanonicalBook{SourceWinner: SourceWinnerMerged}

	var s side
	book.ISBN13, s = preferSecond(primary.ISBN13, secondary.ISBN13)
	w.record("isbn13", s)
	book.ISBN, s = preferSecond(primary.ISBN, secondary.ISBN)
	w.record("isbn", s)

	book.Title = w.str("title", primary.Title, secondary.Title)
	book.Description = w.str("description", primary.Description, secondary.Description)
	book.Publisher = w.str("publisher", primary.Publisher, secondary.Publisher)
	book.URL = w.str("url", primary.URL, secondary.URL)
	book.Cover = w.str("cover", primary.Cover, secondary.Cover)
	book.Format = w.str("format", primary.Format, secondary.Format)
	book.PubInfo = w.str("pub_info", primary.PubInfo, secondary.PubInfo)
	book.PublicationDate = w.str("publication_date", primary.PublicationDate, secondary.PublicationDate)

	book.RatingValue = w.num("rating_value", primary.RatingValue, secondary.RatingValue)
	book.RatingCount = toInt(w.num("rating_count", primary.RatingCount, secondary.RatingCount))
	book.ReviewCount = toInt(w.num("review_count", primary.ReviewCount, secondary.ReviewCount))
	book.NumPages = toInt(w.num("num_pages", primary.NumPages, secondary.NumPages))
	book.PublicationTimestamp = toInt(w.num("publication_timestamp", primary.PublicationTimestamp, secondary.PublicationTimestamp))

	book.Authors = w.list("authors", primary.Authors, secondary.Authors)
	book.Genres = w.list("genres", primary.Genres, secondary.Genres)

	book.Language, s = pickLanguage(primary.Language, secondary.Language)
	w.record("language", s)

	// price and currency travel together
	switch {
	case secondary.Price != nil:
		book.Price, book.Currency = secondary.Price, secondary.Currency
		w.record("price", second)
	case primary.Price != nil:
		book.Price, book.Currency = primary.Price, primary.Currency
		w.record("price", first)
	}

	book.Comments = primary.Comments
	if len(book.Comments) > 0 {
		w.record("comments", first)
	}
	book.ReviewCountByLang = langCounts(primary.ReviewCountByLang)
	if len(book.ReviewCountByLang) > 0 {
		w.record("review_count_by_lang", first)
	}

	if err := finish(book, w.fields, primary, secondary); err != nil {
		return nil, err
	}
	return book, nil
}

// single passes one record's values through unchanged
func single(r *models.SourceRecord) (*models.CanonicalBook, error) {
	book := passThrough(r)
	fields := make(map[string]string)
	for name, present := range presentFields(book) {
		if present {
			fields[name] = r.Source
		}
	}
	if err := finish(book, fields, r); err != nil {
		return nil, err
	}
	return book, nil
}

func passThrough(r *models.SourceRecord) *models.CanonicalBook {
	return &models.CanonicalBook{
		SourceWinner:         r.Source,
		ISBN13:               r.ISBN13,
		ISBN:                 r.ISBN,
		Title:                r.Title,
		Authors:              r.Authors,
		Publisher:            r.Publisher,
		PublicationDate:      r.PublicationDate,
		PublicationTimestamp: toInt(r.PublicationTimestamp),
		PubInfo:              r.PubInfo,
		Language:             r.Language,
		Genres:               r.Genres,
		NumPages:             toInt(r.NumPages),
		Format:               r.Format,
		RatingValue:          r.RatingValue,
		RatingCount:          toInt(r.RatingCount),
		ReviewCount:          toInt(r.ReviewCount),
		ReviewCountByLang:    langCounts(r.ReviewCountByLang),
		Price:                r.Price,
		Currency:             r.Currency,
		Cover:                r.Cover,
		URL:                  r.URL,
		Description:          r.Description,
		Comments:             r.Comments,
	}
}

func finish(book *models.CanonicalBook, fields map[string]string, records ...*models.SourceRecord) error {
	prov := Provenance{Fields: fields}
	for _, r := range records {
		ref := SourceRef{Source: r.Source, File: r.SourceFile, Row: r.Index}
		if r.ID != nil {
			ref.ID = *r.ID
		}
		prov.Sources = append(prov.Sources, ref)
	}
	blob, err := json.Marshal(prov)
	if err != nil {
		return fmt.Errorf("failed to encode provenance: %w", err)
	}
	book.Provenance = string(blob)
	book.CompletenessScore = int64(Completeness(book))
	return nil
}

// ParseProvenance decodes a book's provenance document
func ParseProvenance(book *models.CanonicalBook) (*Provenance, error) {
	var prov Provenance
	if err := json.Unmarshal([]byte(book.Provenance), &prov); err != nil {
		return nil, fmt.Errorf("failed to decode provenance: %w", err)
	}
	return &prov, nil
}

func presentFields(b *models.CanonicalBook) map[string]bool {
	return map[string]bool{
		"isbn13":                b.ISBN13 != nil,
		"isbn":                  b.ISBN != nil,
		"title":                 b.Title != nil,
		"authors":               len(b.Authors) > 0,
		"publisher":             b.Publisher != nil,
		"publication_date":      b.PublicationDate != nil,
		"publication_timestamp": b.PublicationTimestamp != nil,
		"pub_info":              b.PubInfo != nil,
		"language":              b.Language != nil,
		"genres":                len(b.Genres) > 0,
		"num_pages":             b.NumPages != nil,
		"format":                b.Format != nil,
		"rating_value":          b.RatingValue != nil,
		"rating_count":          b.RatingCount != nil,
		"review_count":          b.ReviewCount != nil,
		"review_count_by_lang":  len(b.ReviewCountByLang) > 0,
		"price":                 b.Price != nil,
		"cover":                 b.Cover != nil,
		"url":                   b.URL != nil,
		"description":           b.Description != nil,
		"comments":              len(b.Comments) > 0,
	}
}

func langCounts(m map[string]float64) []models.LangCount {
	if len(m) == 0 {
		return nil
	}
	out := make([]models.LangCount, 0, len(m))
	for lang, n := range m {
		out = append(out, models.LangCount{Language: lang, Count: int64(math.Round(n))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Language < out[j].Language })
	return out
}

func toInt(f *float64) *int64 {
	if f == nil {
		return nil
	}
	n := int64(math.Round(*f))
	return &n
}
