package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
)

func str(s string) *string { return &s }

func record(source, isbn13, title, author string) models.SourceRecord {
	r := models.SourceRecord{Source: source, Title: str(title)}
	if isbn13 != "" {
		r.ISBN13 = str(isbn13)
	}
	if author != "" {
		r.Authors = []string{author}
	}
	return r
}

func TestCandidate(t *testing.T) {
	withISBN := record("goodreads", "9780441013593", "Dune", "Frank Herbert")
	assert.Equal(t, "9780441013593", Candidate(&withISBN, false))

	a := models.SourceRecord{Title: str("Dune"), Publisher: str("Ace"), PublicationDate: str("1965")}
	b := models.SourceRecord{Title: str(" DUNE "), Publisher: str("ace"), PublicationDate: str("1965")}
	assert.Equal(t, Candidate(&a, false), Candidate(&b, false))
	assert.Len(t, Candidate(&a, false), 40)

	a.Authors = []string{"Frank Herbert"}
	assert.NotEqual(t, Candidate(&a, false), Candidate(&a, true))

	invalid := record("goodreads", "9780441013594", "Dune", "")
	assert.NotEqual(t, "9780441013594", Candidate(&invalid, false))
}

func TestCandidateStableAcrossCalls(t *testing.T) {
	r := models.SourceRecord{Title: str("Le Petit Prince"), Publisher: str("Gallimard"), PublicationDate: str("1943-04")}
	first := Candidate(&r, true)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Candidate(&r, true))
	}
}

func TestResolveByISBN(t *testing.T) {
	primary := []models.SourceRecord{
		record("goodreads", "9780306406157", "Signals", "Ann"),
		record("goodreads", "", "Lonely", "Nobody"),
	}
	secondary := []models.SourceRecord{
		record("googlebooks", "9780306406157", "Signals and Systems", "Ann"),
	}

	groups := Resolve(primary, secondary, DefaultPolicy())
	require.Len(t, groups, 2)

	assert.Equal(t, "9780306406157", groups[0].Identity)
	assert.Equal(t, MatchedByISBN13, groups[0].MatchedBy)
	assert.Same(t, &secondary[0], groups[0].Secondary)

	assert.Nil(t, groups[1].Secondary)
	assert.Equal(t, MatchedByNone, groups[1].MatchedBy)
	assert.Same(t, &primary[1], groups[1].Primary)
}

func TestResolveTitleAuthorFallbackAdoptsSecondaryISBN(t *testing.T) {
	primary := []models.SourceRecord{record("goodreads", "", "Dune", "Frank Herbert")}
	secondary := []models.SourceRecord{record("googlebooks", "9780441013593", "Dune!", "frank  herbert")}

	groups := Resolve(primary, secondary, DefaultPolicy())
	require.Len(t, groups, 1)
	assert.Equal(t, MatchedByTitleAuthor, groups[0].MatchedBy)
	assert.Equal(t, "9780441013593", groups[0].Identity)
}

func TestResolveFallbackDisabled(t *testing.T) {
	primary := []models.SourceRecord{record("goodreads", "", "Dune", "Frank Herbert")}
	secondary := []models.SourceRecord{record("googlebooks", "9780441013593", "Dune", "Frank Herbert")}

	policy := DefaultPolicy()
	policy.TitleAuthorFallback = false
	groups := Resolve(primary, secondary, policy)
	require.Len(t, groups, 2)
	assert.Nil(t, groups[0].Secondary)
	assert.Equal(t, "9780441013593", groups[1].Identity)
	assert.Nil(t, groups[1].Primary)
}

func TestResolveEmptyKeysNeverMatch(t *testing.T) {
	primary := []models.SourceRecord{{Source: "goodreads"}}
	secondary := []models.SourceRecord{{Source: "googlebooks"}}

	groups := Resolve(primary, secondary, DefaultPolicy())
	require.Len(t, groups, 2)
	assert.Nil(t, groups[0].Secondary)
}

func TestResolveDuplicateSecondaryISBN(t *testing.T) {
	primary := []models.SourceRecord{record("goodreads", "9780306406157", "Signals", "Ann")}
	secondary := []models.SourceRecord{
		record("googlebooks", "9780306406157", "first", "Ann"),
		record("googlebooks", "9780306406157", "second", "Ann"),
	}

	for i := 0; i < 3; i++ {
		groups := Resolve(primary, secondary, DefaultPolicy())
		assert.Same(t, &secondary[0], groups[0].Secondary)
	}

	policy := DefaultPolicy()
	policy.DuplicateKey = DuplicateLast
	groups := Resolve(primary, secondary, policy)
	assert.Same(t, &secondary[1], groups[0].Secondary)
	require.Len(t, groups, 2, "the unpaired duplicate stays a singleton")
	assert.Same(t, &secondary[0], groups[1].Secondary)
}

func TestResolveDropsUnmatchedSecondary(t *testing.T) {
	secondary := []models.SourceRecord{record("googlebooks", "9780306406157", "Signals", "Ann")}
	policy := DefaultPolicy()
	policy.KeepUnmatchedSecondary = false

	assert.Empty(t, Resolve(nil, secondary, policy))
	assert.Len(t, Resolve(nil, secondary, DefaultPolicy()), 1)
}

func TestTitleAuthorKey(t *testing.T) {
	r := record("goodreads", "", "The Hobbit, or There and Back Again", "J.R.R. Tolkien")
	assert.Equal(t, "the hobbit or there and back again|jrr tolkien", TitleAuthorKey(&r))

	noAuthor := record("goodreads", "", "The Hobbit", "")
	assert.Equal(t, "", TitleAuthorKey(&noAuthor))
}
