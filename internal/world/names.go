package world

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// NormalizeName canonicalises a display name: NFC, full-width folded to
// half-width, surrounding space trimmed and inner runs of space collapsed.
// Only letters, digits, space, '_' and '-' are accepted.
func NormalizeName(raw string, minLen, maxLen int) (string, error) {
	s := width.Fold.String(norm.NFC.String(raw))
	s = strings.Join(strings.Fields(s), " ")
	n := utf8.RuneCountInString(s)
	if n < minLen || n > maxLen {
		return "", fmt.Errorf("%w: length %d outside [%d, %d]", ErrInvalidName, n, minLen, maxLen)
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' || r == '-' {
			continue
		}
		return "", fmt.Errorf("%w: character %q not allowed", ErrInvalidName, r)
	}
	return s, nil
}
