// internal/game/letters.go
//
// Tried-letters set.
// Responsibilities:
//   - Keep guessed letters in insertion order without repeats.
//   - Convert to and from the comma-delimited column form (driver.Valuer,
//     sql.Scanner).
//   - Encode as a JSON array, including when empty.

package game

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// letterSep separates letters in the stored text form ("A,C,Z").
const letterSep = ","

// Letters is an insertion-ordered set of single uppercase letters.
// It is stored as comma-delimited text and travels as a JSON array everywhere else.
type Letters []string

// Has reports whether l was already tried.
func (ls Letters) Has(l string) bool {
	for _, x := range ls {
		if x == l {
			return true
		}
	}
	return false
}

// With returns a copy of ls with l appended. The receiver is not modified.
// Adding a letter that is already present returns an unchanged copy.
func (ls Letters) With(l string) Letters {
	out := make(Letters, len(ls), len(ls)+1)
	copy(out, ls)
	if ls.Has(l) {
		return out
	}
	return append(out, l)
}

// Strings returns the letters as a never-nil slice.
func (ls Letters) Strings() []string {
	out := make([]string, len(ls))
	copy(out, ls)
	return out
}

// String renders the stored form.
func (ls Letters) String() string { return strings.Join(ls, letterSep) }

// ParseLetters decodes the stored form. Empty input yields an empty set;
// blanks and repeats are dropped.
func ParseLetters(s string) Letters {
	out := Letters{}
	if strings.TrimSpace(s) == "" {
		return out
	}
	for _, p := range strings.Split(s, letterSep) {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" || out.Has(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Value implements driver.Valuer.
func (ls Letters) Value() (driver.Value, error) { return ls.String(), nil }

// Scan implements sql.Scanner.
func (ls *Letters) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ls = Letters{}
	case string:
		*ls = ParseLetters(v)
	case []byte:
		*ls = ParseLetters(string(v))
	default:
		return fmt.Errorf("letters: cannot scan %T", src)
	}
	return nil
}

// MarshalJSON always emits an array, never null.
func (ls Letters) MarshalJSON() ([]byte, error) {
	return json.Marshal(ls.Strings())
}
