// internal/hangman/service.go
//
// Game service: the four game operations (start, guess, status, scoreboard)
// plus player registration, composed from the store, the word selector and
// the pure transition engine.
//
// Each call is an independent unit of work; no game state is held between
// calls. Guesses go through Store.ModifyGame so two guesses on the same game
// never interleave.

package hangman

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/robalobadob/hangman/internal/game"
	"github.com/robalobadob/hangman/internal/scoreboard"
	"github.com/robalobadob/hangman/internal/store"
	"github.com/robalobadob/hangman/internal/words"
)

// MaxNameLength bounds player names, in characters.
const MaxNameLength = 64

// ErrValidation marks malformed input (blank names, empty words, bad letters).
var ErrValidation = errors.New("validation error")

// Service runs game operations against a Store.
type Service struct {
	store       store.Store
	words       words.Selector
	maxAttempts int
}

// New builds a Service. maxAttempts below 1 selects game.DefaultMaxAttempts.
func New(st store.Store, sel words.Selector, maxAttempts int) *Service {
	if maxAttempts < 1 {
		maxAttempts = game.DefaultMaxAttempts
	}
	return &Service{store: st, words: sel, maxAttempts: maxAttempts}
}

// GuessResult is the state after a guess and whether the letter was a hit.
type GuessResult struct {
	Game game.Game
	Hit  bool
}

// RegisterPlayer creates the player or returns the existing one with that name.
func (s *Service) RegisterPlayer(ctx context.Context, name string) (game.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return game.Player{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return game.Player{}, fmt.Errorf("%w: name longer than %d characters", ErrValidation, MaxNameLength)
	}
	p, err := s.store.CreateOrGetPlayer(ctx, name)
	if err != nil {
		return game.Player{}, fmt.Errorf("register player: %w", err)
	}
	return p, nil
}

// Player loads a player by id.
func (s *Service) Player(ctx context.Context, id int64) (game.Player, error) {
	return s.store.GetPlayer(ctx, id)
}

// Start begins a game for playerID. An empty word picks a random secret;
// anything else is used as the secret as-is (uppercased, no dictionary check).
func (s *Service) Start(ctx context.Context, playerID int64, word string) (game.Game, error) {
	if _, err := s.store.GetPlayer(ctx, playerID); err != nil {
		return game.Game{}, err
	}

	explicit := word != ""
	var secret string
	if explicit {
		w, err := words.Explicit(word)
		if err != nil {
			return game.Game{}, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		secret = w
	} else {
		secret = s.words.Pick()
	}

	g, err := s.store.CreateGame(ctx, playerID, secret, s.maxAttempts)
	if err != nil {
		return game.Game{}, fmt.Errorf("create game: %w", err)
	}
	zerolog.Ctx(ctx).Info().
		Int64("gameId", g.ID).
		Int64("playerId", playerID).
		Bool("explicitWord", explicit).
		Int("length", utf8.RuneCountInString(secret)).
		Msg("game started")
	return g, nil
}

// Guess applies letter to game gameID and persists the result.
func (s *Service) Guess(ctx context.Context, gameID int64, letter string) (GuessResult, error) {
	var hit bool
	g, err := s.store.ModifyGame(ctx, gameID, func(cur game.Game) (game.Game, error) {
		next, h, err := game.ApplyGuess(cur, letter)
		if err != nil {
			return cur, err
		}
		hit = h
		return next, nil
	})
	if err != nil {
		if errors.Is(err, game.ErrInvalidLetter) {
			return GuessResult{}, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return GuessResult{}, err
	}

	if g.Status.Terminal() {
		zerolog.Ctx(ctx).Info().
			Int64("gameId", g.ID).
			Int64("playerId", g.PlayerID).
			Str("status", string(g.Status)).
			Int("tries", len(g.TriedLetters)).
			Msg("game finished")
	}
	return GuessResult{Game: g, Hit: hit}, nil
}

// Status loads the current state of a game.
func (s *Service) Status(ctx context.Context, gameID int64) (game.Game, error) {
	return s.store.GetGame(ctx, gameID)
}

// Scoreboard ranks every registered player.
func (s *Service) Scoreboard(ctx context.Context) ([]scoreboard.Entry, error) {
	outcomes, err := s.store.ListGamesWithPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	return scoreboard.Compute(outcomes), nil
}
