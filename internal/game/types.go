// internal/game/types.go
//
// Core type definitions for the hangman game engine.
// Defines:
//   - Status: lifecycle state of a game (in progress / win / lose).
//   - Game: state for a single in-progress or finished game.
//   - Player: immutable player identity.
//   - Outcome: one (player, game status) row consumed by the scoreboard.
//   - Error sentinels for rejected guesses.

package game

import (
	"errors"
	"fmt"
	"time"
)

// DefaultMaxAttempts is the number of misses a player may make before losing.
const DefaultMaxAttempts = 6

// Status represents where a game is in its lifecycle.
// Possible values:
//   - "IN_PROGRESS": guesses are accepted.
//   - "WIN":         every letter was revealed.
//   - "LOSE":        attempts ran out.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusWin        Status = "WIN"
	StatusLose       Status = "LOSE"
)

// Terminal reports whether no further guesses are accepted.
func (s Status) Terminal() bool { return s == StatusWin || s == StatusLose }

// Game holds the state of a single hangman game.
type Game struct {
	ID           int64     `json:"game_id"`
	PlayerID     int64     `json:"player_id"`
	SecretWord   string    `json:"secret_word"`   // uppercase, immutable after creation
	MaskedWord   string    `json:"masked_word"`   // same rune length as SecretWord
	AttemptsLeft int       `json:"attempts_left"` // 0..max attempts
	TriedLetters Letters   `json:"tried_letters"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Player is a registered player. Names are unique.
type Player struct {
	ID        int64     `json:"player_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Outcome pairs a player with the status of one of their games.
// Status is empty for a player who has not played yet.
type Outcome struct {
	PlayerID   int64
	PlayerName string
	Status     Status
}

var (
	// ErrInvalidGuess is the parent of every precondition failure of ApplyGuess.
	ErrInvalidGuess = errors.New("invalid guess")
	// ErrGameFinished is returned when guessing on a WIN/LOSE game.
	ErrGameFinished = fmt.Errorf("%w: game already finished", ErrInvalidGuess)
	// ErrDuplicateLetter is returned when the letter was already tried.
	ErrDuplicateLetter = fmt.Errorf("%w: letter already tried", ErrInvalidGuess)
	// ErrInvalidLetter is returned for empty, multi-character or non-alphabetic input.
	ErrInvalidLetter = errors.New("letter must be a single alphabetic character")
)
