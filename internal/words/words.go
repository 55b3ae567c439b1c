// internal/words/words.go
//
// Provides secret-word selection for the game engine.
//
// Responsibilities:
//   - Load the vocabulary from an environment-provided file or fall back to
//     the embedded default list (assets/words.txt).
//   - Supply Selector implementations: Random (uniform, swappable source)
//     and Fixed (always the same word).
//   - Normalize caller-supplied secret words (Explicit).
//
// Constraints:
//   • Vocabulary words are uppercase, letters only, and unique.
//   • Explicit words are NOT checked against the vocabulary; any non-empty
//     string is accepted as a secret.

package words

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hangman/assets"
)

var (
	// ErrEmptyVocabulary is returned when a word list has no usable entries.
	ErrEmptyVocabulary = errors.New("words: vocabulary is empty")
	// ErrEmptyWord is returned by Explicit for blank input.
	ErrEmptyWord = errors.New("words: secret word must not be empty")
)

// Selector supplies secret words for new games.
type Selector interface {
	Pick() string
}

// Load returns the vocabulary from path, or the embedded default list when
// path is empty.
func Load(path string) ([]string, error) {
	var (
		list []string
		err  error
	)
	if path == "" {
		list, err = assets.WordList()
	} else {
		list, err = readWordFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load words: %w", err)
	}
	list = dedupe(lettersOnly(list))
	if len(list) == 0 {
		return nil, ErrEmptyVocabulary
	}
	return list, nil
}

func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return assets.ReadLines(f)
}

// lettersOnly drops entries with anything but letters. Such a word could
// never be completed, since only letters can be guessed.
func lettersOnly(list []string) []string {
	out := make([]string, 0, len(list))
	for _, w := range list {
		if strings.IndexFunc(w, func(r rune) bool { return !unicode.IsLetter(r) }) >= 0 {
			log.Warn().Str("word", w).Msg("skipping vocabulary entry with non-letter characters")
			continue
		}
		out = append(out, w)
	}
	return out
}

func dedupe(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, w := range list {
		if _, ok := seen[w]; ok || w == "" {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// Random picks uniformly from a fixed vocabulary.
type Random struct {
	words []string
	// Intn returns a value in [0, n). Tests replace it to make picks deterministic.
	Intn func(n int) int
}

// NewRandom builds a Random selector backed by crypto/rand.
func NewRandom(vocabulary []string) (*Random, error) {
	if len(vocabulary) == 0 {
		return nil, ErrEmptyVocabulary
	}
	ws := make([]string, len(vocabulary))
	for i, w := range vocabulary {
		ws[i] = strings.ToUpper(w)
	}
	return &Random{words: ws, Intn: cryptoIntn}, nil
}

// Pick returns one vocabulary word.
func (r *Random) Pick() string {
	return r.words[r.Intn(len(r.words))]
}

// Len reports the vocabulary size.
func (r *Random) Len() int { return len(r.words) }

func cryptoIntn(n int) int {
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(nBig.Int64())
}

// Fixed always returns the same word.
type Fixed string

// Pick returns the fixed word in uppercase.
func (f Fixed) Pick() string { return strings.ToUpper(string(f)) }

// Explicit normalizes a caller-supplied secret word.
func Explicit(word string) (string, error) {
	w := strings.ToUpper(strings.TrimSpace(word))
	if w == "" {
		return "", ErrEmptyWord
	}
	return w, nil
}
