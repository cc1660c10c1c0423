package quality

import (
	"errors"
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
	"github.com/lehigh-university-libraries/catalog-reconciler/internal/normalize"
)

// Predicate checks one raw cell. Predicates never panic and treat
// anything they cannot interpret as a failure.
type Predicate func(models.Cell) bool

// Rule binds an unprefixed flag name to a column and a predicate
type Rule struct {
	Flag   string
	Column string
	Check  Predicate
	// WhenMissing is the flag value for every row when the column is absent
	WhenMissing bool
}

// Metric names an aggregate derived from the pass rate of one flag
type Metric struct {
	Name string
	Flag string
}

// RuleSet is the fixed validation table for one source
type RuleSet struct {
	Source   string
	Prefix   string
	Required []string
	Rules    []Rule
	Metrics  []Metric
	// Validity lists the flags whose conjunction makes a record valid
	Validity  []string
	NullWatch []string
}

// FlagName returns the prefixed name of a flag
func (rs RuleSet) FlagName(flag string) string {
	return rs.Prefix + flag
}

// RecordValidFlag is the conjunction flag stored on every record
const RecordValidFlag = "q_record_valid"

var urlRegex = regexp.MustCompile(`(?i)^https?://`)
var isoDayRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// PrimaryRuleSet is the rule table for the scraped catalog
func PrimaryRuleSet(source, prefix string) RuleSet {
	return RuleSet{
		Source: source,
		Prefix: prefix,
		Required: []string{
			"url", "title", "authors", "rating_value",
			"isbn13", "rating_count", "review_count", "language",
		},
		Rules: []Rule{
			{Flag: "title_valid", Column: "title", Check: nonEmptyText},
			{Flag: "url_valid", Column: "url", Check: validURL},
			{Flag: "authors_valid", Column: "authors", Check: authorsValid},
			{Flag: "rating_valid", Column: "rating_value", Check: numberBetween(0, 5)},
			{Flag: "language_not_null", Column: "language", Check: nonEmptyText},
			{Flag: "rating_count_valid", Column: "rating_count", Check: nonNegative},
			{Flag: "review_count_valid", Column: "review_count", Check: nonNegative},
			{Flag: "num_pages_valid", Column: "num_pages", Check: positive},
			{Flag: "isbn13_not_null", Column: "isbn13", Check: notNull},
			{Flag: "isbn13_valid", Column: "isbn13", Check: validISBN13},
			{Flag: "review_by_lang_valid", Column: "review_count_by_lang", Check: reviewByLangValid},
			{Flag: "genres_valid", Column: "genres", Check: genresValid},
		},
		Metrics: []Metric{
			{Name: "pct_title_not_null", Flag: "title_valid"},
			{Name: "pct_isbn13_not_null", Flag: "isbn13_not_null"},
			{Name: "pct_isbn13_valid", Flag: "isbn13_valid"},
			{Name: "pct_rating_valid", Flag: "rating_valid"},
			{Name: "pct_language_not_null", Flag: "language_not_null"},
		},
		Validity:  []string{"title_valid", "isbn13_valid", "rating_valid"},
		NullWatch: []string{"title", "isbn13", "rating_value", "language", "num_pages"},
	}
}

// SecondaryRuleSet is the rule table for the bibliographic API
func SecondaryRuleSet(source, prefix string) RuleSet {
	return RuleSet{
		Source:   source,
		Prefix:   prefix,
		Required: []string{"isbn13", "url", "title", "authors", "publication_date", "language"},
		Rules: []Rule{
			{Flag: "title_valid", Column: "title", Check: nonEmptyText},
			{Flag: "url_valid", Column: "url", Check: validURL},
			{Flag: "authors_not_null", Column: "authors", Check: listNotEmpty},
			{Flag: "pub_date_valid", Column: "publication_date", Check: strictISODay},
			{Flag: "language_valid", Column: "language", Check: languageTag},
			{Flag: "isbn13_not_null", Column: "isbn13", Check: notNull},
			{Flag: "isbn13_valid", Column: "isbn13", Check: validISBN13},
			{Flag: "num_pages_valid", Column: "num_pages", Check: positive},
			{Flag: "price_amount_non_negative", Column: "price_amount", Check: nullOrNonNegative, WhenMissing: true},
		},
		Metrics: []Metric{
			{Name: "pct_title_not_null", Flag: "title_valid"},
			{Name: "pct_isbn13_not_null", Flag: "isbn13_not_null"},
			{Name: "pct_isbn13_valid", Flag: "isbn13_valid"},
			{Name: "pct_pub_date_valid", Flag: "pub_date_valid"},
			{Name: "pct_language_valid", Flag: "language_valid"},
			{Name: "pct_price_amount_non_negative", Flag: "price_amount_non_negative"},
		},
		Validity:  []string{"title_valid", "isbn13_valid", "language_valid"},
		NullWatch: []string{"title", "isbn13", "price_amount", "language", "publication_date"},
	}
}

func notNull(c models.Cell) bool {
	return !c.IsNull()
}

func nonEmptyText(c models.Cell) bool {
	return c.IsText() && strings.TrimSpace(c.Text) != ""
}

func validURL(c models.Cell) bool {
	return c.IsText() && urlRegex.MatchString(strings.TrimSpace(c.Text))
}

func validISBN13(c models.Cell) bool {
	_, err := normalize.ISBN13(c)
	return err == nil
}

func strictISODay(c models.Cell) bool {
	return c.Kind == models.CellScalar && isoDayRegex.MatchString(strings.TrimSpace(c.Text))
}

func languageTag(c models.Cell) bool {
	return c.IsText() && normalize.ValidLanguageTag(c.Text)
}

func numberBetween(lo, hi float64) Predicate {
	return func(c models.Cell) bool {
		v, err := normalize.Number(c)
		return err == nil && v >= lo && v <= hi
	}
}

func nonNegative(c models.Cell) bool {
	v, err := normalize.Number(c)
	return err == nil && v >= 0
}

func positive(c models.Cell) bool {
	v, err := normalize.Number(c)
	return err == nil && v > 0
}

func nullOrNonNegative(c models.Cell) bool {
	return c.IsNull() || nonNegative(c)
}

func listNotEmpty(c models.Cell) bool {
	items, err := normalize.List(c)
	return err == nil && len(items) > 0
}

// authorsValid requires a non-empty list whose entries are all non-empty strings
func authorsValid(c models.Cell) bool {
	switch c.Kind {
	case models.CellSequence:
		if len(c.Items) == 0 {
			return false
		}
		for _, item := range c.Items {
			if !nonEmptyText(item) || item.Kind == models.CellMalformed {
				return false
			}
		}
		return true
	case models.CellMalformed:
		return listNotEmpty(c)
	default:
		return false
	}
}

// genresValid accepts null, or a list of non-empty strings
func genresValid(c models.Cell) bool {
	switch c.Kind {
	case models.CellAbsent:
		return true
	case models.CellSequence:
		for _, item := range c.Items {
			if !nonEmptyText(item) {
				return false
			}
		}
		return true
	case models.CellMalformed:
		_, err := normalize.List(c)
		return err == nil || errors.Is(err, normalize.ErrEmpty)
	default:
		return false
	}
}

// reviewByLangValid accepts null, or a mapping of non-empty keys to counts >= 0
func reviewByLangValid(c models.Cell) bool {
	switch c.Kind {
	case models.CellAbsent:
		return true
	case models.CellMapping:
		for k, v := range c.Fields {
			if strings.TrimSpace(k) == "" || !nonNegative(v) {
				return false
			}
		}
		return true
	case models.CellMalformed:
		counts, err := normalize.Mapping(c)
		if errors.Is(err, normalize.ErrEmpty) {
			return true
		}
		if err != nil {
			return false
		}
		for k, v := range counts {
			if k == "" || v < 0 {
				return false
			}
		}
		return true
	default:
		return false
	}
}
