package normalize

import (
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
)

var currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// Currency uppercases a currency code and requires the ISO-4217 shape
func Currency(c models.Cell) (string, error) {
	if c.IsAbsent() {
		return "", ErrEmpty
	}
	if c.Kind != models.CellScalar || c.Number != nil {
		return "", parseErr("currency", c.String(), "not text")
	}
	s := strings.ToUpper(strings.TrimSpace(c.Text))
	if s == "" {
		return "", ErrEmpty
	}
	if !currencyRegex.MatchString(s) {
		return "", parseErr("currency", c.Text, "not a three-letter code")
	}
	return s, nil
}
