package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
)

const currencySymbols = "$€£¥"

// Number reads numeric cells and numeric text written with either decimal
// convention ("1,234.50", "1.234,50", "12,5"). Thousands separators are
// tolerated and currency symbols are ignored.
func Number(c models.Cell) (float64, error) {
	switch c.Kind {
	case models.CellAbsent:
		return 0, ErrEmpty
	case models.CellScalar:
		if c.Number != nil {
			return *c.Number, nil
		}
		return ParseNumber(c.Text)
	default:
		return 0, parseErr("number", c.String(), "not a scalar")
	}
}

// ParseNumber is Number over plain text
func ParseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, currencySymbols)
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '_', '\'':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0, ErrEmpty
	}

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if strings.Count(s, ",") > 1 || len(s)-comma-1 == 3 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case dot >= 0 && strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, parseErr("number", raw, "not a number")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, parseErr("number", raw, "not a finite number")
	}
	return f, nil
}
