// internal/store/sqlite.go
//
// SQLite implementation of the Store interface.
//
// Characteristics:
//   - Schema comes from the embedded migrations (players, games).
//   - tried_letters is stored as comma-delimited text via game.Letters' Valuer/Scanner.
//   - ModifyGame runs inside a transaction opened with BEGIN IMMEDIATE (see
//     database.Open), so concurrent guesses on one game are applied one after
//     another instead of overwriting each other.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/hangman/internal/game"
)

// SQLite is a database/sql-backed Store.
type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps an opened and migrated database handle.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// CreateOrGetPlayer inserts name unless it already exists, then loads the row.
func (s *SQLite) CreateOrGetPlayer(ctx context.Context, name string) (game.Player, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO players (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, formatTime(time.Now()),
	); err != nil {
		return game.Player{}, fmt.Errorf("insert player: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT player_id, name, created_at FROM players WHERE name=?`, name)
	return scanPlayer(row)
}

// GetPlayer loads a player by id.
func (s *SQLite) GetPlayer(ctx context.Context, id int64) (game.Player, error) {
	row := s.db.QueryRowContext(ctx, `SELECT player_id, name, created_at FROM players WHERE player_id=?`, id)
	return scanPlayer(row)
}

// CreateGame inserts the initial state of a new game for an existing player.
func (s *SQLite) CreateGame(ctx context.Context, playerID int64, secret string, maxAttempts int) (game.Game, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return game.Game{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM players WHERE player_id=?`, playerID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Game{}, ErrNotFound
	}
	if err != nil {
		return game.Game{}, fmt.Errorf("check player: %w", err)
	}

	g := game.NewGame(playerID, secret, maxAttempts)
	res, err := tx.ExecContext(ctx, `
        INSERT INTO games
            (player_id, secret_word, masked_word, attempts_left, tried_letters, status, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.PlayerID, g.SecretWord, g.MaskedWord, g.AttemptsLeft, g.TriedLetters, string(g.Status), formatTime(g.CreatedAt),
	)
	if err != nil {
		return game.Game{}, fmt.Errorf("insert game: %w", err)
	}
	if g.ID, err = res.LastInsertId(); err != nil {
		return game.Game{}, fmt.Errorf("game id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return game.Game{}, fmt.Errorf("commit: %w", err)
	}
	g.CreatedAt = parseTime(formatTime(g.CreatedAt))
	return g, nil
}

const selectGame = `SELECT game_id, player_id, secret_word, masked_word, attempts_left,
                           tried_letters, status, created_at
                    FROM games WHERE game_id=?`

// GetGame loads a game by id.
func (s *SQLite) GetGame(ctx context.Context, id int64) (game.Game, error) {
	return scanGame(s.db.QueryRowContext(ctx, selectGame, id))
}

// UpdateGame overwrites the mutable columns of one game.
func (s *SQLite) UpdateGame(ctx context.Context, g game.Game) error {
	return updateGame(ctx, s.db, g)
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateGame(ctx context.Context, db execer, g game.Game) error {
	res, err := db.ExecContext(ctx, `
        UPDATE games
        SET masked_word=?, attempts_left=?, tried_letters=?, status=?
        WHERE game_id=?`,
		g.MaskedWord, g.AttemptsLeft, g.TriedLetters, string(g.Status), g.ID,
	)
	if err != nil {
		return fmt.Errorf("update game %d: %w", g.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update game %d: %w", g.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ModifyGame reads, transforms and writes one game inside a single write transaction.
func (s *SQLite) ModifyGame(ctx context.Context, id int64, fn ModifyFunc) (game.Game, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return game.Game{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := scanGame(tx.QueryRowContext(ctx, selectGame, id))
	if err != nil {
		return game.Game{}, err
	}
	next, err := fn(cur)
	if err != nil {
		return game.Game{}, err
	}
	next.ID = id
	if err := updateGame(ctx, tx, next); err != nil {
		return game.Game{}, err
	}
	if err := tx.Commit(); err != nil {
		return game.Game{}, fmt.Errorf("commit: %w", err)
	}

	// Immutable columns always come from the stored row.
	cur.MaskedWord = next.MaskedWord
	cur.AttemptsLeft = next.AttemptsLeft
	cur.TriedLetters = next.TriedLetters
	cur.Status = next.Status
	return cur, nil
}

// ListGamesWithPlayers left-joins players to games so idle players are listed too.
func (s *SQLite) ListGamesWithPlayers(ctx context.Context) ([]game.Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT p.player_id, p.name, COALESCE(g.status, '')
        FROM players p
        LEFT JOIN games g ON g.player_id = p.player_id
        ORDER BY p.player_id ASC, g.game_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []game.Outcome
	for rows.Next() {
		var o game.Outcome
		var status string
		if err := rows.Scan(&o.PlayerID, &o.PlayerName, &status); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Status = game.Status(status)
		out = append(out, o)
	}
	return out, rows.Err()
}

// Close closes the underlying database handle.
func (s *SQLite) Close() error { return s.db.Close() }

// scanPlayer converts a *sql.Row into a game.Player.
func scanPlayer(row *sql.Row) (game.Player, error) {
	var p game.Player
	var created string
	if err := row.Scan(&p.ID, &p.Name, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return game.Player{}, ErrNotFound
		}
		return game.Player{}, fmt.Errorf("scan player: %w", err)
	}
	p.CreatedAt = parseTime(created)
	return p, nil
}

// scanGame converts a *sql.Row into a game.Game.
func scanGame(row *sql.Row) (game.Game, error) {
	var g game.Game
	var status, created string
	if err := row.Scan(&g.ID, &g.PlayerID, &g.SecretWord, &g.MaskedWord, &g.AttemptsLeft,
		&g.TriedLetters, &status, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return game.Game{}, ErrNotFound
		}
		return game.Game{}, fmt.Errorf("scan game: %w", err)
	}
	g.Status = game.Status(status)
	g.CreatedAt = parseTime(created)
	return g, nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// parseTime parses RFC3339 timestamps; on error returns zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
