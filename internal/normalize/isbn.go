package normalize

import (
	"strings"
	"unicode"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
)

// CleanISBN removes hyphens and whitespace from an ISBN
func CleanISBN(isbn string) string {
	isbn = strings.TrimSpace(isbn)
	isbn = strings.TrimSuffix(isbn, ".0")
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, isbn)
}

// ValidISBN13 reports whether s is 13 digits whose last digit matches the
// alternating 1/3 weighted checksum of the first twelve.
func ValidISBN13(s string) bool {
	if len(s) != 13 {
		return false
	}
	total := 0
	for i := 0; i < 12; i++ {
		d := s[i]
		if d < '0' || d > '9' {
			return false
		}
		weight := 1
		if i%2 == 1 {
			weight = 3
		}
		total += int(d-'0') * weight
	}
	last := s[12]
	if last < '0' || last > '9' {
		return false
	}
	check := (10 - total%10) % 10
	return int(last-'0') == check
}

// ISBN13 returns the cleaned ISBN-13 when it passes the check digit
func ISBN13(c models.Cell) (string, error) {
	if c.Kind != models.CellScalar {
		if c.IsAbsent() {
			return "", ErrEmpty
		}
		return "", parseErr("isbn13", c.String(), "not a scalar")
	}
	cleaned := CleanISBN(c.Text)
	if cleaned == "" {
		return "", ErrEmpty
	}
	if len(cleaned) != 13 {
		return "", parseErr("isbn13", c.Text, "expected 13 digits")
	}
	if !ValidISBN13(cleaned) {
		return "", parseErr("isbn13", c.Text, "check digit mismatch")
	}
	return cleaned, nil
}

// ISBN returns the cleaned value of a free-form ISBN column (ISBN-10 or 13)
func ISBN(c models.Cell) (string, error) {
	if c.Kind != models.CellScalar {
		if c.IsAbsent() {
			return "", ErrEmpty
		}
		return "", parseErr("isbn", c.String(), "not a scalar")
	}
	cleaned := CleanISBN(c.Text)
	if cleaned == "" {
		return "", ErrEmpty
	}
	return strings.ToUpper(cleaned), nil
}
