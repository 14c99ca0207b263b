// Package normalize canonicalizes free-text attribute values so stored values
// and filter request values can be compared by exact match.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Func canonicalizes an already cleaned value for one attribute key.
// Implementations must be idempotent and must not panic.
type Func func(clean string) string

// Normalizer maps (attribute key, raw value) pairs to canonical form.
// Overrides are registered by attribute key; unregistered keys use the
// generic title-cased form. Register must not be called concurrently with
// Normalize.
type Normalizer struct {
	overrides map[string]Func
}

// New returns a Normalizer with the built-in unit and label overrides.
func New() *Normalizer {
	n := &Normalizer{overrides: make(map[string]Func)}

	n.Register("Display Size", displaySize)
	n.Register("Screen Size", displaySize)
	n.Register("Storage", storageSize)
	n.Register("RAM", storageSize)

	n.Register("Brand", brandLabels.canonical)
	n.Register("Chipset", chipsetLabels.canonical)
	n.Register("Processor", chipsetLabels.canonical)
	n.Register("Memory Type", memoryTypeLabels.canonical)
	n.Register("Series", seriesLabels.canonical)
	n.Register("Display", resolutionLabels.canonical)
	return n
}

// Default is the process-wide normalizer used by the package-level helpers.
var Default = New()

// Normalize canonicalizes raw under key using the Default normalizer.
func Normalize(key, raw string) string {
	return Default.Normalize(key, raw)
}

// Register installs fn for key. Keys compare case-insensitively and treat
// '_' and '-' as spaces.
func (n *Normalizer) Register(key string, fn Func) {
	n.overrides[keyForm(key)] = fn
}

// Normalize returns the canonical form of raw for the attribute key.
func (n *Normalizer) Normalize(key, raw string) string {
	clean := Clean(raw)
	if clean == "" {
		return ""
	}
	if fn, ok := n.overrides[keyForm(key)]; ok {
		return fn(clean)
	}
	return Title(clean)
}

// --- Generic path ---

var (
	parenGroup = regexp.MustCompile(`\([^()]*\)`)
)

// Clean strips diacritics and invisible control characters, removes
// parenthetical groups and collapses whitespace. Case is preserved.
func Clean(raw string) string {
	s := stripMarks(raw)
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case unicode.Is(unicode.Cc, r), unicode.Is(unicode.Cf, r):
			return -1
		}
		return r
	}, s)

	for {
		stripped := parenGroup.ReplaceAllString(s, " ")
		if stripped == s {
			break
		}
		s = stripped
	}
	// An unbalanced "(" opens a suffix that never closes.
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, ")", " ")

	return strings.Join(strings.Fields(s), " ")
}

// Title title-cases every word of an already cleaned value.
func Title(clean string) string {
	return cases.Title(language.Und).String(clean)
}

func stripMarks(s string) string {
	// The chain is stateful, so it is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func keyForm(key string) string {
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	return strings.ToLower(strings.Join(strings.Fields(key), " "))
}
