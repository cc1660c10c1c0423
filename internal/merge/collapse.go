package merge

import (
	"fmt"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
)

// Collapse policies
const (
	KeepFirst    = "keep-first"
	MostComplete = "most-complete"
)

// completenessFields are the fields counted by Completeness
var completenessFields = []string{
	"title", "authors", "publisher", "publication_date",
	"isbn13", "language", "genres", "num_pages",
}

// Completeness counts the non-null relevant fields of a book
func Completeness(b *models.CanonicalBook) int {
	present := presentFields(b)
	n := 0
	for _, field := range completenessFields {
		if present[field] {
			n++
		}
	}
	return n
}

// RecordCompleteness scores one unmerged source record like its pass-through book
func RecordCompleteness(r *models.SourceRecord) int {
	return Completeness(passThrough(r))
}

// Collapse keeps one row per BookID in first-seen order and reports how
// many rows were dropped. keep-first keeps the earliest row; most-complete
// keeps the highest completeness score, the earliest on ties. Rows are not re-merged.
func Collapse(books []models.CanonicalBook, policy string) ([]models.CanonicalBook, int, error) {
	if policy != KeepFirst && policy != MostComplete {
		return nil, 0, fmt.Errorf("unknown collapse policy %q", policy)
	}

	pos := make(map[string]int, len(books))
	out := make([]models.CanonicalBook, 0, len(books))
	for _, b := range books {
		i, seen := pos[b.BookID]
		if !seen {
			pos[b.BookID] = len(out)
			out = append(out, b)
			continue
		}
		if policy == MostComplete && b.CompletenessScore > out[i].CompletenessScore {
			out[i] = b
		}
	}
	return out, len(books) - len(out), nil
}
