// internal/game/engine.go
//
// Core state machine for a single hangman game.
// Responsibilities:
//   - Build the initial state of a game (full attempts, hidden word).
//   - Validate and apply letter guesses.
//   - Track state transitions: IN_PROGRESS → WIN / LOSE.
//
// Notes:
//   - ApplyGuess is pure: it returns a new Game and never touches its input.
//     Persisting the result is the caller's job.
//   - Secret words come from the words package and are already uppercase.
package game

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// NewGame constructs the initial state for secret.
// maxAttempts below 1 falls back to DefaultMaxAttempts.
func NewGame(playerID int64, secret string, maxAttempts int) Game {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	secret = strings.ToUpper(secret)
	return Game{
		PlayerID:     playerID,
		SecretWord:   secret,
		MaskedWord:   CreateMask(secret),
		AttemptsLeft: maxAttempts,
		TriedLetters: Letters{},
		Status:       StatusInProgress,
		CreatedAt:    time.Now().UTC(),
	}
}

// NormalizeLetter trims s and returns its single letter in uppercase.
// Returns ErrInvalidLetter for anything but exactly one alphabetic rune.
func NormalizeLetter(s string) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) != 1 {
		return "", ErrInvalidLetter
	}
	r, _ := utf8.DecodeRuneInString(s)
	if !unicode.IsLetter(r) {
		return "", ErrInvalidLetter
	}
	return string(unicode.ToUpper(r)), nil
}

// ApplyGuess validates and applies letter to state.
// Returns: the next state, whether the letter occurs in the secret word, or an error.
//
// Validation rules (in order):
//   - Game must be IN_PROGRESS (ErrGameFinished).
//   - Letter must be a single alphabetic character (ErrInvalidLetter).
//   - Letter must not have been tried before (ErrDuplicateLetter).
//
// State transitions:
//   - Hit and no placeholder left → WIN.
//   - Miss and attempts reach 0   → LOSE.
func ApplyGuess(state Game, letter string) (Game, bool, error) {
	if state.Status != StatusInProgress {
		return state, false, ErrGameFinished
	}
	l, err := NormalizeLetter(letter)
	if err != nil {
		return state, false, err
	}
	if state.TriedLetters.Has(l) {
		return state, false, ErrDuplicateLetter
	}

	next := state
	next.TriedLetters = state.TriedLetters.With(l)

	r, _ := utf8.DecodeRuneInString(l)
	hit := strings.ContainsRune(state.SecretWord, r)
	if hit {
		next.MaskedWord = Reveal(state.SecretWord, state.MaskedWord, r)
		if IsComplete(next.MaskedWord) {
			next.Status = StatusWin
		}
	} else {
		next.AttemptsLeft--
		if next.AttemptsLeft <= 0 {
			next.AttemptsLeft = 0
			next.Status = StatusLose
		}
	}
	return next, hit, nil
}
