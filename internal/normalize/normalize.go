// Package normalize turns noisy spreadsheet values into canonical tokens.
//
// Every function here is pure: the same raw value and synonym tables always
// produce the same token.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fmuoria/candidate-dashboard/internal/models"
)

var (
	locationDelims = regexp.MustCompile(`[,/\-–()]`)
	nonLetters     = regexp.MustCompile(`[^a-zA-Z\s]`)
	skillDelims    = regexp.MustCompile(`[,;]`)
)

// Normalizer canonicalizes field values against a set of synonym tables
type Normalizer struct {
	synonyms *Synonyms
}

// New creates a normalizer. A nil synonyms value uses the defaults.
func New(synonyms *Synonyms) *Normalizer {
	if synonyms == nil {
		synonyms = DefaultSynonyms()
	}
	return &Normalizer{synonyms: synonyms}
}

var std = New(nil)

// Location normalizes a location with the default synonyms
func Location(raw string) string { return std.Location(raw) }

// Skills normalizes a skill list with the default synonyms
func Skills(raw string) []string { return std.Skills(raw) }

// Simple normalizes a single-valued categorical field
func Simple(raw string) string {
	if v := strings.TrimSpace(raw); v != "" {
		return v
	}
	return models.Unknown
}

// Simple normalizes a single-valued categorical field
func (n *Normalizer) Simple(raw string) string { return Simple(raw) }

// Location reduces a free-text location to a title-cased city name
func (n *Normalizer) Location(raw string) string {
	s := strings.TrimSpace(strings.Map(plainSpace, raw))
	if isMissing(s) {
		return models.Unknown
	}

	s = locationDelims.Split(s, 2)[0]
	s = nonLetters.ReplaceAllString(s, "")
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))

	if target, ok := n.synonyms.Locations[s]; ok {
		s = target
	}

	if len(s) < 2 {
		return models.Unknown
	}
	// a Caser keeps state, so one per call
	return cases.Title(language.Und).String(s)
}

// Skills splits a comma or semicolon separated skill list. Synonyms collapse
// to one token and each skill is reported at most once per row, in the order
// it first appears.
func (n *Normalizer) Skills(raw string) []string {
	if isMissing(strings.TrimSpace(raw)) {
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	for _, piece := range skillDelims.Split(raw, -1) {
		piece = strings.TrimSpace(piece)
		if isMissing(piece) {
			continue
		}

		key := lookupKey(piece)
		token := piece
		if canonical, ok := n.synonyms.Skills[key]; ok {
			token = canonical
			key = lookupKey(canonical)
		}

		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, token)
	}
	return out
}

// plainSpace maps every Unicode space (NBSP, thin space, ...) to ' ' so the
// ASCII-only letter filter keeps word boundaries
func plainSpace(r rune) rune {
	if unicode.IsSpace(r) {
		return ' '
	}
	return r
}

func isMissing(s string) bool {
	return s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null")
}
