package ledger

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// DisplayName derives a human-readable component name from a kebab-case id:
// "data-api" becomes "Data Api".
func DisplayName(id string) string {
	// Casers carry state, so each call gets its own.
	title := cases.Title(language.Und, cases.NoLower)
	words := strings.Split(id, "-")
	for i, w := range words {
		words[i] = title.String(w)
	}
	return strings.Join(words, " ")
}

// clean trims surrounding whitespace and applies NFC normalization so that
// visually identical ids compare equal.
func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
