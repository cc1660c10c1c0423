package merge

import (
	"strings"
)

// side reports which argument of a pick survived
type side int

const (
	neither side = iota
	first
	second
)

// PickString returns the longer of two trimmed, non-empty strings.
// On equal length the first argument wins, so the rule is not commutative.
func PickString(a, b *string) *string {
	v, _ := pickString(a, b)
	return v
}

func pickString(a, b *string) (*string, side) {
	a, b = trimmed(a), trimmed(b)
	switch {
	case a == nil && b == nil:
		return nil, neither
	case a == nil:
		return b, second
	case b == nil:
		return a, first
	case len([]rune(*b)) > len([]rune(*a)):
		return b, second
	default:
		return a, first
	}
}

// PickNumber returns the maximum of the non-null values
func PickNumber(a, b *float64) *float64 {
	v, _ := pickNumber(a, b)
	return v
}

func pickNumber(a, b *float64) (*float64, side) {
	switch {
	case a == nil && b == nil:
		return nil, neither
	case a == nil:
		return b, second
	case b == nil:
		return a, first
	case *b > *a:
		return b, second
	default:
		return a, first
	}
}

// MergeLists concatenates a then b, dropping repeats and keeping first-seen order
func MergeLists(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, item := range list {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			if _, dup := seen[item]; dup {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

// PickLanguage prefers a short code (3 characters or fewer) over a longer
// value. When both are short, or both long, the secondary wins.
func PickLanguage(primary, secondary *string) *string {
	v, _ := pickLanguage(primary, secondary)
	return v
}

func pickLanguage(primary, secondary *string) (*string, side) {
	primary, secondary = trimmed(primary), trimmed(secondary)
	switch {
	case primary == nil && secondary == nil:
		return nil, neither
	case primary == nil:
		return secondary, second
	case secondary == nil:
		return primary, first
	case isShortCode(*secondary):
		return secondary, second
	case isShortCode(*primary):
		return primary, first
	default:
		return secondary, second
	}
}

// preferSecond returns b when present, otherwise a
func preferSecond(a, b *string) (*string, side) {
	if v := trimmed(b); v != nil {
		return v, second
	}
	if v := trimmed(a); v != nil {
		return v, first
	}
	return nil, neither
}

func isShortCode(s string) bool {
	return len([]rune(s)) <= 3
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
