// Package text prepares extracted document text for speech synthesis.
package text

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize folds compatibility characters (ligatures, full-width forms) with
// NFKC, collapses every whitespace run to a single space and trims the result.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(s), " ")
}
