package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
)

func TestValidISBN13(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"9780306406157", true},
		{"9780306406158", false},
		{"9780441013593", true},
		{"978030640615", false},
		{"97803064061570", false},
		{"978030640615X", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidISBN13(tt.input))
		})
	}
}

func TestISBN13(t *testing.T) {
	got, err := ISBN13(models.TextCell("978-0-306-40615-7"))
	require.NoError(t, err)
	assert.Equal(t, "9780306406157", got)

	got, err = ISBN13(models.NumberCell(9780441013593))
	require.NoError(t, err)
	assert.Equal(t, "9780441013593", got)

	_, err = ISBN13(models.TextCell("9780306406158"))
	assert.True(t, IsParseError(err))

	_, err = ISBN13(models.Absent())
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1993", "1993"},
		{"1993-03", "1993-03"},
		{"1993-3", "1993-03"},
		{"1993-03-01", "1993-03-01"},
		{"2005-07-16T00:00:00Z", "2005-07-16"},
		{"July 16, 2005", "2005-07-16"},
		{"Jul 16, 2005", "2005-07-16"},
		{"16 July 2005", "2005-07-16"},
		{"July 2005", "2005-07"},
		{"First published July 16th 2005", "2005-07-16"},
		{"Published 1965 by Ace", "1965"},
		{"first published august 1, 1965", "1965-08-01"},
		{"Summer 1965", "1965"},
		{"circa 1890", "1890"},
		{"c. 1890", "1890"},
		{"Published Fall 2001 by Tor", "2001"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Date(models.TextCell(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := DateString(got)
			require.NoError(t, err)
			assert.Equal(t, got, again, "normalizing twice must not change the value")
		})
	}
}

func TestDateRejects(t *testing.T) {
	inputs := []string{
		"not a date", "1993-13", "1993-02-30", "[1993]",
		"Room 1234", "99/99/2005", "ISBN 0-441-1359", "Volume 2 of 9999",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Date(models.TextCell(input))
			assert.Error(t, err)
		})
	}
	_, err := Date(models.Absent())
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestDateGranularity(t *testing.T) {
	assert.Equal(t, "year", DateGranularity("1965"))
	assert.Equal(t, "month", DateGranularity("1965-06"))
	assert.Equal(t, "day", DateGranularity("1965-06-01"))
	assert.Equal(t, "", DateGranularity("June 1965"))
}

func TestEpochMillis(t *testing.T) {
	got, err := EpochMillis(models.NumberCell(1121472000000))
	require.NoError(t, err)
	assert.Equal(t, "2005-07-16", got)
}

func TestLanguageTable(t *testing.T) {
	table := DefaultLanguageTable()
	tests := []struct {
		input string
		want  string
	}{
		{"English", "en"},
		{"  Español ", "es"},
		{"castellano", "es"},
		{"日本語", "ja"},
		{"Tagalog", "fil"},
		{"eng", "en"},
		{"en-US", "en-us"},
		{"Klingon", "klingon"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := table.Normalize(models.TextCell(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := table.Normalize(models.Absent())
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestLanguageTableWithDoesNotMutate(t *testing.T) {
	base := DefaultLanguageTable()
	extended := base.With(map[string][]string{"tlh": {"klingon"}})

	code, ok := extended.Lookup("Klingon")
	require.True(t, ok)
	assert.Equal(t, "tlh", code)

	_, ok = base.Lookup("klingon")
	assert.False(t, ok)
	assert.Greater(t, extended.Len(), base.Len())
}

func TestValidLanguageTag(t *testing.T) {
	assert.True(t, ValidLanguageTag("en"))
	assert.True(t, ValidLanguageTag("en-US"))
	assert.True(t, ValidLanguageTag("fil"))
	assert.False(t, ValidLanguageTag("english"))
	assert.False(t, ValidLanguageTag(""))
}

func TestCurrency(t *testing.T) {
	got, err := Currency(models.TextCell(" usd "))
	require.NoError(t, err)
	assert.Equal(t, "USD", got)

	for _, bad := range []string{"US", "USDX", "$", "U5D"} {
		_, err := Currency(models.TextCell(bad))
		assert.True(t, IsParseError(err), bad)
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"12.99", 12.99},
		{"12,99", 12.99},
		{"1,234.50", 1234.50},
		{"1.234,50", 1234.50},
		{"1,234", 1234},
		{"1.234.567", 1234567},
		{"$ 9.99", 9.99},
		{"-3", -3},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Number(models.TextCell(tt.input))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	got, err := Number(models.NumberCell(4.5))
	require.NoError(t, err)
	assert.Equal(t, 4.5, got)

	_, err = Number(models.TextCell("abc"))
	assert.True(t, IsParseError(err))
	_, err = Number(models.TextCell("NaN"))
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	tests := []struct {
		name string
		cell models.Cell
		want []string
	}{
		{"sequence", models.FromAny([]any{" Bill Bryson ", "", "Bill Bryson"}), []string{"Bill Bryson", "Bill Bryson"}},
		{"pipes", models.TextCell("Fantasy| Science Fiction |"), []string{"Fantasy", "Science Fiction"}},
		{"single", models.TextCell("Frank Herbert"), []string{"Frank Herbert"}},
		{"serialized", models.TextCell("['Travel', \"Humor\"]"), []string{"Travel", "Humor"}},
		{"serialized with comma inside quotes", models.TextCell("['Herbert, Frank', 'Anderson, Kevin J.']"), []string{"Herbert, Frank", "Anderson, Kevin J."}},
		{"serialized with None", models.TextCell("['A', None]"), []string{"A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := List(tt.cell)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := List(models.TextCell("[]"))
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = List(models.FromAny(map[string]any{"a": "b"}))
	assert.True(t, IsParseError(err))
}

func TestMapping(t *testing.T) {
	got, err := Mapping(models.TextCell("{'en': 3, 'es': 1}"))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"en": 3, "es": 1}, got)

	got, err = Mapping(models.FromAny(map[string]any{"fr": float64(2)}))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"fr": 2}, got)

	_, err = Mapping(models.TextCell("{'en': 'many'}"))
	assert.True(t, IsParseError(err))
}

func TestComments(t *testing.T) {
	cell := models.FromAny([]any{
		map[string]any{"user": "ana", "date": "Jan 1, 2020", "rating": float64(4), "text": " great "},
		"stray",
		map[string]any{"user": "bo", "text": "meh"},
	})
	got, err := Comments(cell)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "great", got[0].Text)
	require.NotNil(t, got[0].Rating)
	assert.Equal(t, 4.0, *got[0].Rating)
	assert.Nil(t, got[1].Rating)
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Pub Date":      "pub_date",
		"pubDate":       "pub_date",
		"ratingCount":   "rating_count",
		"ISBN-13":       "isbn_13",
		"  title  ":     "title",
		"num__pages":    "num_pages",
		"publishedDate": "published_date",
	}
	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, SnakeCase(input))
		})
	}
}

func TestMatchKey(t *testing.T) {
	assert.Equal(t, "les miserables", MatchKey("  Les Misérables!  "))
	assert.Equal(t, "dune", MatchKey("DUNE."))
	assert.Equal(t, "", MatchKey("  ...  "))
}

func TestContentHashStable(t *testing.T) {
	a := ContentHash("Dune", "Ace", "1965")
	b := ContentHash("  dune ", "ACE", "1965")
	assert.Equal(t, a, b)
	assert.Len(t, a, 40)
	assert.NotEqual(t, a, ContentHash("Ace", "Dune", "1965"), "field order is part of the key")
	// fixed digest guards against accidental changes to the key layout
	assert.Equal(t, "98eb0d975c6364db09b46ce43bd323eead22a592", a)
}
