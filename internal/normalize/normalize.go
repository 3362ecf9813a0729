// Package normalize canonicalizes product names so catalog entries and
// storefront result cards can be compared.
package normalize

import (
	"strings"

	"github.com/antzucaro/matchr"
)

var letterFolding = strings.NewReplacer(
	"Ä", "A",
	"Å", "A",
	"Ö", "O",
	"É", "E",
	"Ü", "U",
	"ä", "a",
	"å", "a",
	"ö", "o",
	"é", "e",
	"ü", "u",
)

// Name uppercases text and folds locale letters to their unmarked counterparts.
func Name(text string) string {
	return letterFolding.Replace(strings.ToUpper(text))
}

// Equal reports whether two names denote the same product.
func Equal(a, b string) bool {
	return Name(a) == Name(b)
}

// Closest returns the candidate most similar to target after normalization,
// using Jaro-Winkler similarity. ok is false when candidates is empty.
func Closest(target string, candidates []string) (best string, score float64, ok bool) {
	want := Name(target)
	for _, c := range candidates {
		s := matchr.JaroWinkler(want, Name(c), false)
		if !ok || s > score {
			best, score, ok = c, s, true
		}
	}
	return best, score, ok
}
