package game

import (
	"errors"
	"reflect"
	"testing"
)

func mustGuess(t *testing.T, g Game, letter string) (Game, bool) {
	t.Helper()
	next, hit, err := ApplyGuess(g, letter)
	if err != nil {
		t.Fatalf("guess %q: unexpected error: %v", letter, err)
	}
	return next, hit
}

func TestNewGame(t *testing.T) {
	g := NewGame(7, "casa", 6)
	if g.PlayerID != 7 || g.SecretWord != "CASA" || g.MaskedWord != "____" {
		t.Fatalf("unexpected initial state: %+v", g)
	}
	if g.AttemptsLeft != 6 || g.Status != StatusInProgress || len(g.TriedLetters) != 0 {
		t.Fatalf("unexpected initial counters: %+v", g)
	}
	if d := NewGame(1, "X", 0); d.AttemptsLeft != DefaultMaxAttempts {
		t.Fatalf("attempts fallback = %d, want %d", d.AttemptsLeft, DefaultMaxAttempts)
	}
}

func TestApplyGuessHit(t *testing.T) {
	g := NewGame(1, "CASA", 6)
	next, hit := mustGuess(t, g, "a")
	if !hit {
		t.Fatal("expected hit")
	}
	if next.MaskedWord != "_A_A" {
		t.Fatalf("mask = %q, want _A_A", next.MaskedWord)
	}
	if next.Status != StatusInProgress || next.AttemptsLeft != 6 {
		t.Fatalf("unexpected state: %+v", next)
	}
	if !reflect.DeepEqual(next.TriedLetters, Letters{"A"}) {
		t.Fatalf("tried = %v", next.TriedLetters)
	}
	if len(g.TriedLetters) != 0 || g.MaskedWord != "____" {
		t.Fatalf("input state was mutated: %+v", g)
	}
}

func TestApplyGuessWin(t *testing.T) {
	g := NewGame(1, "CASA", 6)
	for i, l := range []string{"C", "A", "S"} {
		g, _ = mustGuess(t, g, l)
		want := StatusInProgress
		if i == 2 {
			want = StatusWin
		}
		if g.Status != want {
			t.Fatalf("after %s: status = %s, want %s", l, g.Status, want)
		}
	}
	if g.MaskedWord != "CASA" || !IsComplete(g.MaskedWord) {
		t.Fatalf("mask = %q", g.MaskedWord)
	}
	if !reflect.DeepEqual(g.TriedLetters, Letters{"C", "A", "S"}) {
		t.Fatalf("tried order = %v", g.TriedLetters)
	}
}

func TestApplyGuessLose(t *testing.T) {
	g := NewGame(1, "CASA", 6)
	for i, l := range []string{"Z", "X", "Q", "W", "K", "J"} {
		var hit bool
		g, hit = mustGuess(t, g, l)
		if hit {
			t.Fatalf("%s should miss", l)
		}
		if g.AttemptsLeft != 5-i {
			t.Fatalf("after %s: attempts = %d, want %d", l, g.AttemptsLeft, 5-i)
		}
		if (g.AttemptsLeft == 0) != (g.Status == StatusLose) {
			t.Fatalf("attempts=%d status=%s out of sync", g.AttemptsLeft, g.Status)
		}
	}
	if g.Status != StatusLose {
		t.Fatalf("status = %s, want LOSE", g.Status)
	}
}

func TestApplyGuessRejections(t *testing.T) {
	base := NewGame(1, "CASA", 6)
	tried, _ := mustGuess(t, base, "A")
	finished := tried
	finished.Status = StatusWin

	tests := []struct {
		name   string
		state  Game
		letter string
		want   error
	}{
		{"duplicate", tried, "A", ErrDuplicateLetter},
		{"duplicate lowercase", tried, "a", ErrDuplicateLetter},
		{"finished", finished, "Z", ErrGameFinished},
		{"finished beats invalid", finished, "", ErrGameFinished},
		{"empty", base, "", ErrInvalidLetter},
		{"two letters", base, "AB", ErrInvalidLetter},
		{"digit", base, "1", ErrInvalidLetter},
		{"symbol", base, "-", ErrInvalidLetter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, hit, err := ApplyGuess(tt.state, tt.letter)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if hit {
				t.Fatal("rejected guess reported a hit")
			}
			if !reflect.DeepEqual(next, tt.state) {
				t.Fatalf("state changed on rejection: %+v", next)
			}
		})
	}

	if !errors.Is(ErrDuplicateLetter, ErrInvalidGuess) || !errors.Is(ErrGameFinished, ErrInvalidGuess) {
		t.Fatal("guess errors must wrap ErrInvalidGuess")
	}
}

func TestApplyGuessTrimsInput(t *testing.T) {
	next, hit := mustGuess(t, NewGame(1, "CASA", 6), " s ")
	if !hit || next.MaskedWord != "__S_" {
		t.Fatalf("hit=%v mask=%q", hit, next.MaskedWord)
	}
}

func TestNormalizeLetterUnicode(t *testing.T) {
	l, err := NormalizeLetter("ç")
	if err != nil || l != "Ç" {
		t.Fatalf("got %q, %v", l, err)
	}
}
