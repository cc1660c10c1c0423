package identity

import (
	"log/slog"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/normalize"
)

// How a group's records were paired
const (
	MatchedByISBN13      = "isbn13"
	MatchedByTitleAuthor = "title_author"
	MatchedByNone        = ""
)

// Duplicate-key policies for the secondary indexes. The choice is arbitrary
// and only depends on input order.
const (
	DuplicateFirst = "first"
	DuplicateLast  = "last"
)

// Policy controls the matching variants
type Policy struct {
	TitleAuthorFallback    bool   `koanf:"title_author_fallback" json:"title_author_fallback" yaml:"title_author_fallback"`
	DuplicateKey           string `koanf:"duplicate_key" json:"duplicate_key" yaml:"duplicate_key" validate:"oneof=first last"`
	KeepUnmatchedSecondary bool   `koanf:"keep_unmatched_secondary" json:"keep_unmatched_secondary" yaml:"keep_unmatched_secondary"`
}

// DefaultPolicy enables the title/author fallback, keeps the first duplicate
// and emits unmatched secondary records.
func DefaultPolicy() Policy {
	return Policy{
		TitleAuthorFallback:    true,
		DuplicateKey:           DuplicateFirst,
		KeepUnmatchedSecondary: true,
	}
}

// Group is the set of records sharing one book identity. At least one side is set.
type Group struct {
	Identity  string
	Primary   *models.SourceRecord
	Secondary *models.SourceRecord
	MatchedBy string
}

// Candidate computes a record's identity from its own normalized fields:
// the ISBN-13 when valid, otherwise a hash of title, publisher and date.
// withAuthor appends the first author to the hash.
func Candidate(r *models.SourceRecord, withAuthor bool) string {
	if r.ISBN13 != nil && normalize.ValidISBN13(*r.ISBN13) {
		return *r.ISBN13
	}
	parts := []string{deref(r.Title), deref(r.Publisher), deref(r.PublicationDate)}
	if withAuthor {
		parts = append(parts, normalize.MatchKey(r.FirstAuthor()))
	}
	return normalize.ContentHash(parts...)
}

// TitleAuthorKey is the fallback match key, or "" when either part is empty
func TitleAuthorKey(r *models.SourceRecord) string {
	title := normalize.MatchKey(deref(r.Title))
	author := normalize.MatchKey(r.FirstAuthor())
	if title == "" || author == "" {
		return ""
	}
	return title + "|" + author
}

// Resolve pairs primary records with secondary records, by ISBN-13 first
// and then, if enabled, by title and first author. Groups come out in primary
// order followed by unmatched secondary records in input order. A secondary
// record may pair with more than one primary; the resulting rows share an
// identity and are collapsed after merging.
func Resolve(primary, secondary []models.SourceRecord, policy Policy) []Group {
	byISBN := make(map[string]int)
	byTitleAuthor := make(map[string]int)
	for i := range secondary {
		rec := &secondary[i]
		if isbn := validISBN(rec); isbn != "" {
			index(byISBN, isbn, i, policy.DuplicateKey)
		}
		if policy.TitleAuthorFallback {
			if key := TitleAuthorKey(rec); key != "" {
				index(byTitleAuthor, key, i, policy.DuplicateKey)
			}
		}
	}

	groups := make([]Group, 0, len(primary)+len(secondary))
	matched := make([]bool, len(secondary))

	for i := range primary {
		p := &primary[i]
		g := Group{Primary: p}

		if isbn := validISBN(p); isbn != "" {
			if j, ok := byISBN[isbn]; ok {
				g.Secondary = &secondary[j]
				g.MatchedBy = MatchedByISBN13
				matched[j] = true
			}
		}
		if g.Secondary == nil && policy.TitleAuthorFallback {
			if key := TitleAuthorKey(p); key != "" {
				if j, ok := byTitleAuthor[key]; ok {
					g.Secondary = &secondary[j]
					g.MatchedBy = MatchedByTitleAuthor
					matched[j] = true
				}
			}
		}

		g.Identity = groupIdentity(g, policy)
		groups = append(groups, g)
	}

	unmatched := 0
	for j := range secondary {
		if matched[j] {
			continue
		}
		unmatched++
		if !policy.KeepUnmatchedSecondary {
			continue
		}
		s := &secondary[j]
		groups = append(groups, Group{
			Identity:  Candidate(s, policy.TitleAuthorFallback),
			Secondary: s,
		})
	}

	slog.Debug("Resolved identities",
		"primary", len(primary),
		"secondary", len(secondary),
		"groups", len(groups),
		"unmatched_secondary", unmatched)

	return groups
}

// groupIdentity prefers the secondary ISBN-13, then the primary ISBN-13,
// then the primary's content hash.
func groupIdentity(g Group, policy Policy) string {
	if g.Secondary != nil {
		if isbn := validISBN(g.Secondary); isbn != "" {
			return isbn
		}
	}
	if g.Primary != nil {
		return Candidate(g.Primary, policy.TitleAuthorFallback)
	}
	return Candidate(g.Secondary, policy.TitleAuthorFallback)
}

func index(idx map[string]int, key string, pos int, duplicate string) {
	if _, exists := idx[key]; exists && duplicate != DuplicateLast {
		return
	}
	idx[key] = pos
}

func validISBN(r *models.SourceRecord) string {
	if r.ISBN13 == nil || !normalize.ValidISBN13(*r.ISBN13) {
		return ""
	}
	return *r.ISBN13
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
