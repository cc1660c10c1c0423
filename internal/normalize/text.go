package normalize

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
)

var (
	punctuationRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	nonWordRegex     = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
	camelRegex       = regexp.MustCompile(`([\p{Ll}0-9])(\p{Lu})`)
	underscoresRegex = regexp.MustCompile(`_+`)
)

// Text returns the trimmed text of a scalar cell
func Text(c models.Cell) (string, error) {
	switch c.Kind {
	case models.CellAbsent:
		return "", ErrEmpty
	case models.CellScalar, models.CellMalformed:
		s := strings.TrimSpace(c.Text)
		if s == "" {
			return "", ErrEmpty
		}
		return s, nil
	default:
		return "", parseErr("text", "", "expected a scalar, got "+c.Kind.String())
	}
}

// IdentityKey is the form text takes inside an identity hash: NFC, lowercase, trimmed
func IdentityKey(s string) string {
	return strings.TrimSpace(strings.ToLower(norm.NFC.String(s)))
}

// MatchKey normalizes text for exact cross-source matching: lowercase,
// accents and punctuation removed, whitespace collapsed.
func MatchKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	folded = punctuationRegex.ReplaceAllString(folded, "")
	return strings.Join(strings.Fields(folded), " ")
}

// ContentHash is the SHA-1 hex digest of the identity keys of parts joined by "|"
func ContentHash(parts ...string) string {
	keys := make([]string, len(parts))
	for i, p := range parts {
		keys[i] = IdentityKey(p)
	}
	sum := sha1.Sum([]byte(strings.Join(keys, "|")))
	return hex.EncodeToString(sum[:])
}

// SnakeCase converts column names such as "Pub Date" or "pubDate" to "pub_date"
func SnakeCase(name string) string {
	s := nonWordRegex.ReplaceAllString(name, "_")
	s = camelRegex.ReplaceAllString(s, "${1}_${2}")
	s = underscoresRegex.ReplaceAllString(s, "_")
	return strings.ToLower(strings.Trim(s, "_"))
}
