// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// A lightweight persistence layer used in development/testing, or when
// durability is not required (DB_PATH=":memory:").
//
// Characteristics:
//   - Stores players and games keyed by id in maps; ids are sequential from 1.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//     ModifyGame holds the write lock for the whole read-modify-write.
//   - Values are copied in and out, so callers never share slices with the map.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robalobadob/hangman/internal/game"
)

// Memory is an in-memory map-based Store implementation.
type Memory struct {
	mu           sync.RWMutex // guards everything below
	players      map[int64]game.Player
	playerByName map[string]int64
	games        map[int64]game.Game
	nextPlayerID int64
	nextGameID   int64
}

// NewMemory constructs a new in-memory Store.
func NewMemory() *Memory {
	return &Memory{
		players:      make(map[int64]game.Player),
		playerByName: make(map[string]int64),
		games:        make(map[int64]game.Game),
	}
}

// CreateOrGetPlayer returns the player named name, creating it first if needed.
func (m *Memory) CreateOrGetPlayer(ctx context.Context, name string) (game.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.playerByName[name]; ok {
		return m.players[id], nil
	}
	m.nextPlayerID++
	p := game.Player{ID: m.nextPlayerID, Name: name, CreatedAt: time.Now().UTC()}
	m.players[p.ID] = p
	m.playerByName[name] = p.ID
	return p, nil
}

// GetPlayer looks up a player by id.
func (m *Memory) GetPlayer(ctx context.Context, id int64) (game.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[id]
	if !ok {
		return game.Player{}, ErrNotFound
	}
	return p, nil
}

// CreateGame stores a fresh game for playerID.
func (m *Memory) CreateGame(ctx context.Context, playerID int64, secret string, maxAttempts int) (game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[playerID]; !ok {
		return game.Game{}, ErrNotFound
	}
	m.nextGameID++
	g := game.NewGame(playerID, secret, maxAttempts)
	g.ID = m.nextGameID
	m.games[g.ID] = clone(g)
	return clone(g), nil
}

// GetGame looks up a game by id.
func (m *Memory) GetGame(ctx context.Context, id int64) (game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return game.Game{}, ErrNotFound
	}
	return clone(g), nil
}

// UpdateGame overwrites the mutable fields of an existing game.
func (m *Memory) UpdateGame(ctx context.Context, g game.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(g)
}

func (m *Memory) updateLocked(g game.Game) error {
	cur, ok := m.games[g.ID]
	if !ok {
		return ErrNotFound
	}
	cur.MaskedWord = g.MaskedWord
	cur.AttemptsLeft = g.AttemptsLeft
	cur.TriedLetters = append(game.Letters{}, g.TriedLetters...)
	cur.Status = g.Status
	m.games[g.ID] = cur
	return nil
}

// ModifyGame applies fn under the write lock.
func (m *Memory) ModifyGame(ctx context.Context, id int64, fn ModifyFunc) (game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.games[id]
	if !ok {
		return game.Game{}, ErrNotFound
	}
	next, err := fn(clone(cur))
	if err != nil {
		return game.Game{}, err
	}
	next.ID = id
	if err := m.updateLocked(next); err != nil {
		return game.Game{}, err
	}
	return clone(m.games[id]), nil
}

// ListGamesWithPlayers returns outcomes ordered by player id, then game id.
func (m *Memory) ListGamesWithPlayers(ctx context.Context) ([]game.Outcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	gameIDs := make([]int64, 0, len(m.games))
	for id := range m.games {
		gameIDs = append(gameIDs, id)
	}
	sort.Slice(gameIDs, func(i, j int) bool { return gameIDs[i] < gameIDs[j] })

	byPlayer := make(map[int64][]game.Status, len(m.players))
	for _, id := range gameIDs {
		g := m.games[id]
		byPlayer[g.PlayerID] = append(byPlayer[g.PlayerID], g.Status)
	}

	playerIDs := make([]int64, 0, len(m.players))
	for id := range m.players {
		playerIDs = append(playerIDs, id)
	}
	sort.Slice(playerIDs, func(i, j int) bool { return playerIDs[i] < playerIDs[j] })

	var out []game.Outcome
	for _, pid := range playerIDs {
		p := m.players[pid]
		statuses := byPlayer[pid]
		if len(statuses) == 0 {
			out = append(out, game.Outcome{PlayerID: pid, PlayerName: p.Name})
			continue
		}
		for _, st := range statuses {
			out = append(out, game.Outcome{PlayerID: pid, PlayerName: p.Name, Status: st})
		}
	}
	return out, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// clone copies g so the tried-letters slice is never shared.
func clone(g game.Game) game.Game {
	g.TriedLetters = append(game.Letters{}, g.TriedLetters...)
	return g
}
