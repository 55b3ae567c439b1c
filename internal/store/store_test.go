package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/robalobadob/hangman/assets"
	"github.com/robalobadob/hangman/internal/database"
	"github.com/robalobadob/hangman/internal/game"
)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "hangman.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(context.Background(), db, assets.Migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := NewSQLite(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newMemoryStore(t *testing.T) Store { return NewMemory() }

var backends = map[string]func(t *testing.T) Store{
	"memory": newMemoryStore,
	"sqlite": newSQLiteStore,
	"cached": newCachedStore,
}

func TestStoreContract(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			t.Run("players", func(t *testing.T) { testPlayers(t, newStore(t)) })
			t.Run("games", func(t *testing.T) { testGames(t, newStore(t)) })
			t.Run("modify", func(t *testing.T) { testModify(t, newStore(t)) })
			t.Run("concurrent guesses", func(t *testing.T) { testConcurrentModify(t, newStore(t)) })
			t.Run("outcomes", func(t *testing.T) { testOutcomes(t, newStore(t)) })
		})
	}
}

func testPlayers(t *testing.T, s Store) {
	ctx := context.Background()
	a, err := s.CreateOrGetPlayer(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	again, err := s.CreateOrGetPlayer(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != a.ID || again.Name != "ana" {
		t.Fatalf("re-registration returned %+v, want id %d", again, a.ID)
	}
	b, err := s.CreateOrGetPlayer(ctx, "bruno")
	if err != nil {
		t.Fatal(err)
	}
	if b.ID == a.ID {
		t.Fatal("distinct names share an id")
	}
	got, err := s.GetPlayer(ctx, b.ID)
	if err != nil || got.Name != "bruno" {
		t.Fatalf("GetPlayer = %+v, %v", got, err)
	}
	if _, err := s.GetPlayer(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown player err = %v", err)
	}
}

func testGames(t *testing.T, s Store) {
	ctx := context.Background()
	p, _ := s.CreateOrGetPlayer(ctx, "ana")

	if _, err := s.CreateGame(ctx, 999, "CASA", 6); !errors.Is(err, ErrNotFound) {
		t.Fatalf("game for unknown player err = %v", err)
	}

	g, err := s.CreateGame(ctx, p.ID, "CASA", 6)
	if err != nil {
		t.Fatal(err)
	}
	if g.ID == 0 || g.MaskedWord != "____" || g.AttemptsLeft != 6 || g.Status != game.StatusInProgress {
		t.Fatalf("unexpected new game: %+v", g)
	}
	g2, err := s.CreateGame(ctx, p.ID, "LIVRO", 6)
	if err != nil {
		t.Fatal(err)
	}
	if g2.ID == g.ID {
		t.Fatal("game ids must be unique")
	}

	g.MaskedWord = "_A_A"
	g.TriedLetters = game.Letters{"A", "Z"}
	g.AttemptsLeft = 5
	g.SecretWord = "IGNORED"
	if err := s.UpdateGame(ctx, g); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.SecretWord != "CASA" {
		t.Fatalf("secret word changed to %q", got.SecretWord)
	}
	if got.MaskedWord != "_A_A" || got.AttemptsLeft != 5 || !reflect.DeepEqual(got.TriedLetters, game.Letters{"A", "Z"}) {
		t.Fatalf("update not persisted: %+v", got)
	}

	if _, err := s.GetGame(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown game err = %v", err)
	}
	if err := s.UpdateGame(ctx, game.Game{ID: 999}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update unknown game err = %v", err)
	}
}

func testModify(t *testing.T, s Store) {
	ctx := context.Background()
	p, _ := s.CreateOrGetPlayer(ctx, "ana")
	g, _ := s.CreateGame(ctx, p.ID, "CASA", 6)

	next, err := s.ModifyGame(ctx, g.ID, func(cur game.Game) (game.Game, error) {
		n, _, err := game.ApplyGuess(cur, "A")
		return n, err
	})
	if err != nil {
		t.Fatal(err)
	}
	if next.MaskedWord != "_A_A" || next.SecretWord != "CASA" {
		t.Fatalf("modify result = %+v", next)
	}

	_, err = s.ModifyGame(ctx, g.ID, func(cur game.Game) (game.Game, error) {
		n, _, err := game.ApplyGuess(cur, "A")
		return n, err
	})
	if !errors.Is(err, game.ErrDuplicateLetter) {
		t.Fatalf("err = %v, want duplicate", err)
	}
	stored, _ := s.GetGame(ctx, g.ID)
	if !reflect.DeepEqual(stored.TriedLetters, game.Letters{"A"}) {
		t.Fatalf("aborted modify wrote state: %+v", stored)
	}

	if _, err := s.ModifyGame(ctx, 999, func(cur game.Game) (game.Game, error) { return cur, nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("modify unknown game err = %v", err)
	}
}

func testConcurrentModify(t *testing.T, s Store) {
	ctx := context.Background()
	p, _ := s.CreateOrGetPlayer(ctx, "ana")
	g, _ := s.CreateGame(ctx, p.ID, "ABCDEFGH", 6)

	letters := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	var wg sync.WaitGroup
	errs := make(chan error, len(letters))
	for _, l := range letters {
		wg.Add(1)
		go func(l string) {
			defer wg.Done()
			_, err := s.ModifyGame(ctx, g.ID, func(cur game.Game) (game.Game, error) {
				n, _, err := game.ApplyGuess(cur, l)
				return n, err
			})
			errs <- err
		}(l)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent guess: %v", err)
		}
	}

	final, err := s.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(final.TriedLetters) != len(letters) || final.Status != game.StatusWin || final.MaskedWord != "ABCDEFGH" {
		t.Fatalf("lost updates: %+v", final)
	}

	if c, ok := s.(*Cached); ok {
		truth, err := c.Store.GetGame(ctx, g.ID)
		if err != nil {
			t.Fatal(err)
		}
		// The second read is served from the cache entry filled by the first.
		served, err := s.GetGame(ctx, g.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !sameState(final, truth) || !sameState(served, truth) {
			t.Fatalf("cache diverged: served %+v, stored %+v", served, truth)
		}
	}
}

func testOutcomes(t *testing.T, s Store) {
	ctx := context.Background()
	a, _ := s.CreateOrGetPlayer(ctx, "ana")
	b, _ := s.CreateOrGetPlayer(ctx, "bruno")
	_, _ = s.CreateOrGetPlayer(ctx, "carla")

	won, _ := s.CreateGame(ctx, a.ID, "CASA", 6)
	won.Status = game.StatusWin
	won.MaskedWord = "CASA"
	if err := s.UpdateGame(ctx, won); err != nil {
		t.Fatal(err)
	}
	_, _ = s.CreateGame(ctx, b.ID, "CASA", 6)

	got, err := s.ListGamesWithPlayers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []game.Outcome{
		{PlayerID: a.ID, PlayerName: "ana", Status: game.StatusWin},
		{PlayerID: b.ID, PlayerName: "bruno", Status: game.StatusInProgress},
		{PlayerID: 3, PlayerName: "carla"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("outcomes =\n%+v\nwant\n%+v", got, want)
	}
}
