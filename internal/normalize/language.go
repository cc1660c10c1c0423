package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/lehigh-university-libraries/catalog-reconciler/internal/models"
)

var languageTagRegex = regexp.MustCompile(`^[a-zA-Z]{2,3}(-[a-zA-Z0-9]{2,8})*$`)

// defaultLanguageNames lists, per code, the names and spellings seen in
// scraped catalogs: English and Spanish names, native scripts, old abbreviations.
var defaultLanguageNames = map[string][]string{
	"en":  {"english", "eng"},
	"es":  {"spanish", "español", "castellano", "esp"},
	"fr":  {"french", "francais", "français"},
	"de":  {"german", "deutsch", "aleman", "alemán"},
	"pt":  {"portuguese", "português", "portugues"},
	"it":  {"italian", "italiano"},
	"nl":  {"dutch", "nederlands", "holandes", "holandés"},
	"ru":  {"russian", "русский", "ruso"},
	"zh":  {"chinese", "mandarin", "中文"},
	"ja":  {"japanese", "日本語", "japones", "japonés"},
	"ko":  {"korean", "한국어", "coreano"},
	"ar":  {"arabic", "عربي", "arabe", "árabe"},
	"hi":  {"hindi", "हिन्दी"},
	"bn":  {"bengali", "বাংলা"},
	"ur":  {"urdu", "اردو"},
	"tr":  {"turkish", "turco"},
	"sv":  {"swedish", "sueco"},
	"da":  {"danish", "danés", "dansk"},
	"no":  {"norwegian", "norsk", "noruego"},
	"pl":  {"polish", "polaco"},
	"cs":  {"czech", "čeština", "checo"},
	"el":  {"greek", "ελληνικά", "griego"},
	"he":  {"hebrew", "עברית", "hebreo"},
	"hu":  {"hungarian", "magyar", "húngaro"},
	"fi":  {"finnish", "suomi", "fines"},
	"ro":  {"romanian", "română", "rumano"},
	"sk":  {"slovak", "slovenčina"},
	"sl":  {"slovenian", "slovenski"},
	"hr":  {"croatian", "hrvatski"},
	"sr":  {"serbian", "српски"},
	"uk":  {"ukrainian", "українська"},
	"id":  {"indonesian", "bahasa indonesia"},
	"ms":  {"malay", "bahasa melayu"},
	"th":  {"thai", "ไทย"},
	"vi":  {"vietnamese", "tiếng việt"},
	"fil": {"filipino", "tagalog"},
	"fa":  {"persian", "farsi", "فارسی"},
	"is":  {"icelandic", "íslenska"},
	"ca":  {"catalan", "català"},
	"gl":  {"galician", "galego"},
	"eu":  {"basque", "euskera"},
}

// LanguageTable maps lowercased language names to short codes.
// The zero value knows no names; tables are read-only once built.
type LanguageTable struct {
	codes map[string]string
}

// NewLanguageTable builds a table from code → names. Every code also maps to itself.
func NewLanguageTable(names map[string][]string) LanguageTable {
	codes := make(map[string]string)
	for code, aliases := range names {
		code = languageKey(code)
		codes[code] = code
		for _, alias := range aliases {
			codes[languageKey(alias)] = code
		}
	}
	return LanguageTable{codes: codes}
}

// DefaultLanguageTable returns the built-in table
func DefaultLanguageTable() LanguageTable {
	return NewLanguageTable(defaultLanguageNames)
}

// With returns a copy of the table extended with extra aliases
func (t LanguageTable) With(names map[string][]string) LanguageTable {
	codes := make(map[string]string, len(t.codes))
	for k, v := range t.codes {
		codes[k] = v
	}
	for code, aliases := range names {
		code = languageKey(code)
		codes[code] = code
		for _, alias := range aliases {
			codes[languageKey(alias)] = code
		}
	}
	return LanguageTable{codes: codes}
}

// Len returns the number of known names
func (t LanguageTable) Len() int {
	return len(t.codes)
}

// Lookup returns the code for a name
func (t LanguageTable) Lookup(name string) (string, bool) {
	code, ok := t.codes[languageKey(name)]
	return code, ok
}

// Normalize maps a language cell to its code. Unknown values come back
// lowercased, since they are often already codes ("en-us").
func (t LanguageTable) Normalize(c models.Cell) (string, error) {
	if c.IsAbsent() {
		return "", ErrEmpty
	}
	if c.Kind != models.CellScalar || c.Number != nil {
		return "", parseErr("language", c.String(), "not text")
	}
	key := languageKey(c.Text)
	if key == "" {
		return "", ErrEmpty
	}
	if code, ok := t.codes[key]; ok {
		return code, nil
	}
	return key, nil
}

// ValidLanguageTag reports whether s has the shape of a BCP-47 tag
func ValidLanguageTag(s string) bool {
	return languageTagRegex.MatchString(strings.TrimSpace(s))
}

func languageKey(s string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(s)))
}
