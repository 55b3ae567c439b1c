// internal/game/mask.go
//
// Masking primitives for the secret word.
// Responsibilities:
//   - Build the initial all-placeholder mask.
//   - Reveal every position of a guessed letter.
//   - Report completion and render the mask for display ("C _ S _").

package game

import (
	"strings"
	"unicode"
)

// Placeholder marks a letter that has not been revealed yet.
const Placeholder = '_'

// CreateMask returns one placeholder per rune of secret.
func CreateMask(secret string) string {
	return strings.Repeat(string(Placeholder), len([]rune(secret)))
}

// Reveal uncovers every position of secret holding letter (compared in
// uppercase). Positions already revealed are left alone, so revealing the
// same letter twice is a no-op.
func Reveal(secret, mask string, letter rune) string {
	letter = unicode.ToUpper(letter)
	sr := []rune(secret)
	mr := []rune(mask)
	for i, c := range sr {
		if i < len(mr) && c == letter {
			mr[i] = letter
		}
	}
	return string(mr)
}

// IsComplete reports whether no placeholder remains.
func IsComplete(mask string) bool {
	return !strings.ContainsRune(mask, Placeholder)
}

// FormatForDisplay renders the mask with its characters space-separated,
// e.g. "_A_A" becomes "_ A _ A".
func FormatForDisplay(mask string) string {
	rs := []rune(mask)
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}
