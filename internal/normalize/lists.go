package normalize

import (
	"strings"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
)

// List normalizes authors, genres and categories to ordered, trimmed,
// non-empty strings. Sequences, "a|b|c" text and serialized lists such as
// "['Bill Bryson']" are accepted. Duplicates are kept.
func List(c models.Cell) ([]string, error) {
	var out []string
	switch c.Kind {
	case models.CellAbsent:
		return nil, ErrEmpty
	case models.CellSequence:
		for _, item := range c.Items {
			if item.Kind != models.CellScalar {
				continue
			}
			if s := strings.TrimSpace(item.Text); s != "" {
				out = append(out, s)
			}
		}
	case models.CellScalar:
		for _, part := range strings.Split(c.Text, "|") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	case models.CellMalformed:
		body, ok := unwrap(strings.TrimSpace(c.Text), '[', ']')
		if !ok {
			return nil, parseErr("list", c.Text, "not a serialized list")
		}
		for _, part := range splitTopLevel(body, ',') {
			if s, ok := unquote(part); ok && s != "" {
				out = append(out, s)
			}
		}
	default:
		return nil, parseErr("list", "", "mapping is not a list")
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

// Mapping normalizes a review-count-by-language value (a mapping, or
// serialized text like "{'en': 3, 'es': 1}") to language → count.
func Mapping(c models.Cell) (map[string]float64, error) {
	out := make(map[string]float64)
	switch c.Kind {
	case models.CellAbsent:
		return nil, ErrEmpty
	case models.CellMapping:
		for k, v := range c.Fields {
			n, err := Number(v)
			if err != nil {
				return nil, parseErr("mapping", k, "non-numeric value")
			}
			out[strings.TrimSpace(k)] = n
		}
	case models.CellMalformed:
		body, ok := unwrap(strings.TrimSpace(c.Text), '{', '}')
		if !ok {
			return nil, parseErr("mapping", c.Text, "not a serialized mapping")
		}
		for _, entry := range splitTopLevel(body, ',') {
			if strings.TrimSpace(entry) == "" {
				continue
			}
			kv := splitTopLevel(entry, ':')
			if len(kv) != 2 {
				return nil, parseErr("mapping", c.Text, "malformed entry")
			}
			key, _ := unquote(kv[0])
			n, err := ParseNumber(kv[1])
			if key == "" || err != nil {
				return nil, parseErr("mapping", c.Text, "malformed entry")
			}
			out[key] = n
		}
	default:
		return nil, parseErr("mapping", c.String(), "not a mapping")
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

// Comments reads a sequence of {user, date, rating, text} mappings.
// Entries that are not mappings are skipped.
func Comments(c models.Cell) ([]models.Comment, error) {
	if c.IsAbsent() {
		return nil, ErrEmpty
	}
	if c.Kind != models.CellSequence {
		return nil, parseErr("comments", c.String(), "not a sequence")
	}
	var out []models.Comment
	for _, item := range c.Items {
		if item.Kind != models.CellMapping {
			continue
		}
		row := models.Row(item.Fields)
		comment := models.Comment{
			User: strings.TrimSpace(row.Get("user").String()),
			Date: strings.TrimSpace(row.Get("date").String()),
			Text: strings.TrimSpace(row.Get("text").String()),
		}
		if rating, err := Number(row.Get("rating")); err == nil {
			comment.Rating = &rating
		}
		out = append(out, comment)
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

func unwrap(s string, open, close byte) (string, bool) {
	if len(s) < 2 || s[0] != open || s[len(s)-1] != close {
		return "", false
	}
	return s[1 : len(s)-1], true
}

// splitTopLevel splits on sep outside of single or double quotes
func splitTopLevel(s string, sep rune) []string {
	var (
		parts []string
		cur   strings.Builder
		quote rune
	)
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && quote != 0:
			escaped = true
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '\'' || r == '"'):
			quote = r
		case quote == 0 && r == sep:
			parts = append(parts, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	return append(parts, cur.String())
}

// unquote strips matching quotes. Bare None/nan tokens report false.
func unquote(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		inner := s[1 : len(s)-1]
		inner = strings.ReplaceAll(inner, `\'`, `'`)
		inner = strings.ReplaceAll(inner, `\"`, `"`)
		return strings.TrimSpace(inner), true
	}
	switch strings.ToLower(s) {
	case "none", "nan", "null":
		return "", false
	}
	return s, true
}
