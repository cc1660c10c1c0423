package pipeline

import (
	"math"
	"sort"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/merge"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/normalize"
)

// detailRow flattens one flagged, normalized record for book_source_detail
func detailRow(rec *models.SourceRecord) models.SourceDetail {
	d := models.SourceDetail{
		Source:            rec.Source,
		SourceFile:        rec.SourceFile,
		IngestTimestamp:   rec.IngestedAt,
		RowIndex:          int64(rec.Index),
		BookID:            rec.Identity,
		CandidateID:       rec.Identity,
		SourceID:          rec.ID,
		ISBN13:            rec.ISBN13,
		ISBN:              rec.ISBN,
		Title:             rec.Title,
		Authors:           rec.Authors,
		Publisher:         rec.Publisher,
		PublicationDate:   rec.PublicationDate,
		Language:          rec.Language,
		Genres:            rec.Genres,
		NumPages:          roundPtr(rec.NumPages),
		RatingValue:       rec.RatingValue,
		RatingCount:       roundPtr(rec.RatingCount),
		Price:             rec.Price,
		Currency:          rec.Currency,
		URL:               rec.URL,
		RecordValid:       rec.Valid,
		CompletenessScore: int64(merge.RecordCompleteness(rec)),
	}

	// keep the raw value when the normalized isbn13 was rejected
	if raw, err := normalize.Text(rec.Raw.Get("isbn13")); err == nil {
		d.RawISBN13 = &raw
	}

	names := make([]string, 0, len(rec.Flags))
	for name := range rec.Flags {
		names = append(names, name)
	}
	sort.Strings(names)
	d.QualityFlags = make([]models.Flag, 0, len(names))
	for _, name := range names {
		d.QualityFlags = append(d.QualityFlags, models.Flag{Name: name, Passed: rec.Flags[name]})
	}
	return d
}

func roundPtr(f *float64) *int64 {
	if f == nil {
		return nil
	}
	n := int64(math.Round(*f))
	return &n
}
