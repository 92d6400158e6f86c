package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fuzzyMinRunes es el largo mínimo de un término para tolerar una errata.
const fuzzyMinRunes = 5

// Filter retorna los items cuyo texto contiene todos los términos de query.
// Es puro: no modifica items y conserva su orden. Query vacía retorna una copia.
func Filter[T any](items []T, query string, fields func(T) []string) []T {
	terms := strings.Fields(fold(query))
	out := make([]T, 0, len(items))
	if len(terms) == 0 {
		return append(out, items...)
	}
	for _, it := range items {
		if matchesAll(terms, fields(it)) {
			out = append(out, it)
		}
	}
	return out
}

// Matches reporta si un texto contiene todos los términos de query.
func Matches(query string, text ...string) bool {
	terms := strings.Fields(fold(query))
	return len(terms) == 0 || matchesAll(terms, text)
}

func matchesAll(terms []string, fields []string) bool {
	folded := make([]string, len(fields))
	for i, f := range fields {
		folded[i] = fold(f)
	}
	for _, term := range terms {
		if !matchesTerm(term, folded) {
			return false
		}
	}
	return true
}

func matchesTerm(term string, fields []string) bool {
	for _, f := range fields {
		if strings.Contains(f, term) {
			return true
		}
	}
	if utf8.RuneCountInString(term) < fuzzyMinRunes {
		return false
	}
	for _, f := range fields {
		for _, w := range strings.FieldsFunc(f, isSeparator) {
			if levenshtein.ComputeDistance(term, w) <= 1 {
				return true
			}
		}
	}
	return false
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// fold pasa a minúsculas y quita diacríticos ("Añadir" -> "anadir").
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
