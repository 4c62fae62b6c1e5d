package presenter

import (
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/spinpick/internal/ir"
)

const (
	// MaxLabelRunes is the longest title shown on a wheel segment as-is.
	MaxLabelRunes = 20

	labelKeepRunes = 17
	ellipsis       = "..."
)

// Label returns the wheel label for a title. Titles longer than
// MaxLabelRunes runes (after NFC normalization) keep their first 17 runes
// followed by "...".
func Label(title string) string {
	runes := []rune(norm.NFC.String(title))
	if len(runes) <= MaxLabelRunes {
		return string(runes)
	}
	return string(runes[:labelKeepRunes]) + ellipsis
}

// Labels returns the wheel labels of a set in segment order.
func Labels(set ir.CandidateSet) []string {
	out := make([]string, len(set))
	for i, c := range set {
		out[i] = Label(c.Title)
	}
	return out
}
