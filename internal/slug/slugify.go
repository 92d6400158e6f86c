// Package slug deriva identificadores URL-safe a partir de texto libre y
// resuelve su unicidad contra el backend (best-effort, sin lock).
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLen es el largo máximo (en bytes ASCII) del slug base.
const MaxLen = 80

// Fallback se usa cuando el título no produce ningún carácter válido.
const Fallback = "untitled"

// stripMarks arma una cadena nueva por llamada (transform.Chain no es seguro
// para uso concurrente).
func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Slugify normaliza un título: minúsculas, sin diacríticos ni puntuación,
// palabras separadas por un solo guion.
//
//	Slugify("How do you handle steep driveways for guests?")
//	// "how-do-you-handle-steep-driveways-for-guests"
func Slugify(title string) string {
	s, _, err := transform.String(stripMarks(), title)
	if err != nil {
		s = title
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	dash := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		// Apóstrofes no separan palabras: "guest's" -> "guests"
		if r == '\'' || r == '’' {
			continue
		}
		dash = true
	}

	out := truncate(b.String(), MaxLen)
	if out == "" {
		return Fallback
	}
	return out
}

// truncate corta en el último guion que entra en max.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	s = s[:max]
	if i := strings.LastIndexByte(s, '-'); i > 0 {
		s = s[:i]
	}
	return strings.Trim(s, "-")
}
