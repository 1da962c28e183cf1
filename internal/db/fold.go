package db

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold normalizes text for case- and diacritic-insensitive matching:
// "Café" and "CAFE" both fold to "cafe".
func Fold(value string) string {
	// transformers carry state, so a fresh chain is built per call
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripMarks, value)
	if err != nil {
		stripped = value
	}
	return cases.Fold().String(stripped)
}

func searchText(title, description string) string {
	return Fold(title) + "\n" + Fold(description)
}
