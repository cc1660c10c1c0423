package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	textlang "golang.org/x/text/language"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
)

var (
	yearRegex      = regexp.MustCompile(`^(\d{4})$`)
	yearMonthRegex = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})$`)
	fullDateRegex  = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})(?:[T ].*)?$`)
	ordinalRegex   = regexp.MustCompile(`(\d+)(?:st|nd|rd|th)\b`)
	pubPrefixRegex = regexp.MustCompile(`(?i)^(?:expected\s+publication|first\s+published|published)\s*:?\s*`)
	pubByRegex     = regexp.MustCompile(`(?i)\s+by\s+.*$`)
	seasonYear     = regexp.MustCompile(`(?i)^(?:spring|summer|fall|autumn|winter|circa|c\.?)\s+(\d{4})$`)

	titleCaser = cases.Title(textlang.English)
)

// Long-form layouts after commas and ordinals are stripped, with the granularity they carry
var longDateLayouts = []struct {
	layout string
	day    bool
}{
	{"January 2 2006", true},
	{"Jan 2 2006", true},
	{"2 January 2006", true},
	{"2 Jan 2006", true},
	{"January 2006", false},
	{"Jan 2006", false},
}

// Date normalizes a publication date to ISO-8601 at the granularity of the
// input: "1993" stays a year, "March 1993" becomes "1993-03", a full date
// becomes "YYYY-MM-DD". Pub-info strings such as "First published July 16th
// 2005" or "Published 1965 by Ace" are accepted.
func Date(c models.Cell) (string, error) {
	if c.IsAbsent() {
		return "", ErrEmpty
	}
	if c.Kind != models.CellScalar {
		return "", parseErr("publication_date", c.String(), "not a scalar")
	}
	return DateString(c.Text)
}

// DateString is Date over plain text
func DateString(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrEmpty
	}
	if iso, ok := isoDate(s); ok {
		return iso, nil
	}

	s = pubPrefixRegex.ReplaceAllString(s, "")
	s = pubByRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if iso, ok := isoDate(s); ok {
		return iso, nil
	}

	s = ordinalRegex.ReplaceAllString(s, "$1")
	s = strings.Join(strings.Fields(strings.ReplaceAll(s, ",", " ")), " ")
	s = titleCaser.String(strings.ToLower(s))
	for _, l := range longDateLayouts {
		t, err := time.Parse(l.layout, s)
		if err != nil {
			continue
		}
		if l.day {
			return t.Format("2006-01-02"), nil
		}
		return t.Format("2006-01"), nil
	}

	// seasons and circa dates only pin the year
	if m := seasonYear.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}
	return "", parseErr("publication_date", raw, "unrecognized date format")
}

func isoDate(s string) (string, bool) {
	if m := yearRegex.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if m := yearMonthRegex.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return "", false
		}
		return fmt.Sprintf("%s-%02d", m[1], month), true
	}
	if m := fullDateRegex.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if t.Year() != year || int(t.Month()) != month || t.Day() != day {
			return "", false
		}
		return t.Format("2006-01-02"), true
	}
	return "", false
}

// DateGranularity returns "year", "month", "day" or "" for a normalized date
func DateGranularity(iso string) string {
	switch {
	case yearRegex.MatchString(iso):
		return "year"
	case len(iso) == 7 && yearMonthRegex.MatchString(iso):
		return "month"
	case len(iso) == 10 && fullDateRegex.MatchString(iso):
		return "day"
	default:
		return ""
	}
}

// EpochMillis converts a millisecond epoch timestamp to a day-granularity date
func EpochMillis(c models.Cell) (string, error) {
	ms, err := Number(c)
	if err != nil {
		return "", err
	}
	return time.UnixMilli(int64(ms)).UTC().Format("2006-01-02"), nil
}
