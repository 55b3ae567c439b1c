// Package store persists players and games.
//
// The Store is the only shared state of the server: every game operation
// loads from it and writes back to it. Implementations must serialize the
// read-modify-write of a single game (ModifyGame); operations on different
// games or players need no coordination.
package store

import (
	"context"
	"errors"

	"github.com/robalobadob/hangman/internal/game"
)

// ErrNotFound is returned for unknown player or game ids.
var ErrNotFound = errors.New("not found")

// ModifyFunc computes the next state of a game from its current state.
// Returning an error aborts the modification; nothing is written.
type ModifyFunc func(current game.Game) (game.Game, error)

// Store defines the persistence contract for players and games.
// Implementations: Memory (this package), SQLite, and the Cached decorator.
type Store interface {
	// CreateOrGetPlayer registers name, or returns the existing player with that name.
	CreateOrGetPlayer(ctx context.Context, name string) (game.Player, error)

	// GetPlayer returns ErrNotFound for unknown ids.
	GetPlayer(ctx context.Context, id int64) (game.Player, error)

	// CreateGame allocates a new id and stores the initial state for secret.
	CreateGame(ctx context.Context, playerID int64, secret string, maxAttempts int) (game.Game, error)

	// GetGame returns ErrNotFound for unknown ids.
	GetGame(ctx context.Context, id int64) (game.Game, error)

	// UpdateGame overwrites the mutable fields (mask, attempts, tried letters, status).
	UpdateGame(ctx context.Context, g game.Game) error

	// ModifyGame runs fn on the current state of game id and stores its result,
	// with no other modification of the same game interleaved.
	ModifyGame(ctx context.Context, id int64, fn ModifyFunc) (game.Game, error)

	// ListGamesWithPlayers returns one Outcome per game, plus an Outcome with an
	// empty status for every player without games.
	ListGamesWithPlayers(ctx context.Context) ([]game.Outcome, error)

	Close() error
}
