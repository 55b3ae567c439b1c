package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/valkey-io/valkey-go"

	"github.com/robalobadob/hangman/internal/game"
)

func newTestValkey(t *testing.T) (*miniredis.Miniredis, valkey.Client) {
	t.Helper()
	mini := miniredis.RunT(t)
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:  []string{mini.Addr()},
		DisableCache: true,
	})
	if err != nil {
		t.Fatalf("valkey client: %v", err)
	}
	return mini, client
}

func newCachedStore(t *testing.T) Store {
	t.Helper()
	_, client := newTestValkey(t)
	c := NewCached(NewMemory(), client, time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func cachedGame(t *testing.T, mini *miniredis.Miniredis, id int64) (game.Game, bool) {
	t.Helper()
	key := gameKey(id)
	if !mini.Exists(key) {
		return game.Game{}, false
	}
	raw, err := mini.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	var g game.Game
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		t.Fatalf("decode cached game: %v", err)
	}
	return g, true
}

func guess(letter string) ModifyFunc {
	return func(cur game.Game) (game.Game, error) {
		n, _, err := game.ApplyGuess(cur, letter)
		return n, err
	}
}

// sameState compares the fields a guess can change.
func sameState(a, b game.Game) bool {
	return a.ID == b.ID &&
		a.MaskedWord == b.MaskedWord &&
		a.AttemptsLeft == b.AttemptsLeft &&
		a.Status == b.Status &&
		a.TriedLetters.String() == b.TriedLetters.String()
}

// hookStore runs callbacks after inner operations return.
type hookStore struct {
	Store
	afterGet    func()
	afterModify func()
}

func (h *hookStore) GetGame(ctx context.Context, id int64) (game.Game, error) {
	g, err := h.Store.GetGame(ctx, id)
	if h.afterGet != nil {
		h.afterGet()
	}
	return g, err
}

func (h *hookStore) ModifyGame(ctx context.Context, id int64, fn ModifyFunc) (game.Game, error) {
	g, err := h.Store.ModifyGame(ctx, id, fn)
	if h.afterModify != nil {
		h.afterModify()
	}
	return g, err
}

func TestCachedFillsOnReadAndDropsOnWrite(t *testing.T) {
	ctx := context.Background()
	mini, client := newTestValkey(t)
	c := NewCached(NewMemory(), client, time.Minute)
	defer c.Close()

	p, _ := c.CreateOrGetPlayer(ctx, "ana")
	g, err := c.CreateGame(ctx, p.ID, "CASA", 6)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cachedGame(t, mini, g.ID); ok {
		t.Fatal("create must not cache")
	}

	if _, err := c.GetGame(ctx, g.ID); err != nil {
		t.Fatal(err)
	}
	cached, ok := cachedGame(t, mini, g.ID)
	if !ok || cached.SecretWord != "CASA" || cached.MaskedWord != "____" {
		t.Fatalf("read not cached: %+v (present=%v)", cached, ok)
	}
	if ttl := mini.TTL(gameKey(g.ID)); ttl != time.Minute {
		t.Fatalf("ttl = %v, want 1m", ttl)
	}

	before, _ := mini.Get(genKey(g.ID))
	if _, err := c.ModifyGame(ctx, g.ID, guess("S")); err != nil {
		t.Fatal(err)
	}
	if _, ok := cachedGame(t, mini, g.ID); ok {
		t.Fatal("modify must drop the cached entry")
	}
	if after, _ := mini.Get(genKey(g.ID)); after == before {
		t.Fatalf("generation not bumped: %q", after)
	}

	got, err := c.GetGame(ctx, g.ID)
	if err != nil || got.MaskedWord != "__S_" || len(got.TriedLetters) != 1 {
		t.Fatalf("after modify = %+v, %v", got, err)
	}
	if cached, _ := cachedGame(t, mini, g.ID); cached.MaskedWord != "__S_" {
		t.Fatalf("refill = %+v", cached)
	}
}

func TestCachedServesHits(t *testing.T) {
	ctx := context.Background()
	mini, client := newTestValkey(t)
	inner := NewMemory()
	c := NewCached(inner, client, time.Minute)
	defer c.Close()

	p, _ := inner.CreateOrGetPlayer(ctx, "ana")
	g, _ := inner.CreateGame(ctx, p.ID, "CASA", 6)

	got, err := c.GetGame(ctx, g.ID)
	if err != nil || got.SecretWord != "CASA" {
		t.Fatalf("miss load = %+v, %v", got, err)
	}

	// A cached entry is served without touching the inner store.
	entry := got
	entry.MaskedWord = "C___"
	data, _ := json.Marshal(entry)
	if err := mini.Set(gameKey(g.ID), string(data)); err != nil {
		t.Fatal(err)
	}
	hit, err := c.GetGame(ctx, g.ID)
	if err != nil || hit.MaskedWord != "C___" {
		t.Fatalf("hit = %+v, %v", hit, err)
	}
}

func TestCachedInvalidates(t *testing.T) {
	ctx := context.Background()
	mini, client := newTestValkey(t)
	c := NewCached(NewMemory(), client, time.Minute)
	defer c.Close()

	p, _ := c.CreateOrGetPlayer(ctx, "ana")
	g, _ := c.CreateGame(ctx, p.ID, "CASA", 6)
	if _, err := c.GetGame(ctx, g.ID); err != nil {
		t.Fatal(err)
	}

	g.AttemptsLeft = 3
	if err := c.UpdateGame(ctx, g); err != nil {
		t.Fatal(err)
	}
	if mini.Exists(gameKey(g.ID)) {
		t.Fatal("UpdateGame must drop the cached entry")
	}

	if err := mini.Set(gameKey(g.ID), "{not json"); err != nil {
		t.Fatal(err)
	}
	got, err := c.GetGame(ctx, g.ID)
	if err != nil || got.AttemptsLeft != 3 {
		t.Fatalf("corrupt entry fallback = %+v, %v", got, err)
	}
	if cached, ok := cachedGame(t, mini, g.ID); !ok || cached.AttemptsLeft != 3 {
		t.Fatalf("corrupt entry not replaced: %+v", cached)
	}
}

func TestCachedMissingGame(t *testing.T) {
	c := newCachedStore(t)
	if _, err := c.GetGame(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

// A guess that commits first but finishes its cache step last must not leave
// its older state behind.
func TestCachedOutOfOrderWriters(t *testing.T) {
	ctx := context.Background()
	_, client := newTestValkey(t)
	inner := &hookStore{Store: NewMemory()}
	c := NewCached(inner, client, time.Minute)
	defer c.Close()

	p, _ := c.CreateOrGetPlayer(ctx, "ana")
	g, _ := c.CreateGame(ctx, p.ID, "AB", 6)

	committed := make(chan struct{})
	release := make(chan struct{})
	var first atomic.Bool
	inner.afterModify = func() {
		if first.CompareAndSwap(false, true) {
			close(committed)
			<-release
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := c.ModifyGame(ctx, g.ID, guess("A")); err != nil {
			t.Errorf("guess A: %v", err)
		}
	}()

	<-committed
	if _, err := c.ModifyGame(ctx, g.ID, guess("B")); err != nil {
		t.Fatal(err)
	}
	// Read between the two cache steps; this fills the cache with the final state.
	if _, err := c.GetGame(ctx, g.ID); err != nil {
		t.Fatal(err)
	}
	close(release)
	wg.Wait()

	truth, _ := inner.Store.GetGame(ctx, g.ID)
	served, err := c.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if truth.Status != game.StatusWin || !sameState(served, truth) {
		t.Fatalf("served %s/%s, stored %s/%s", served.MaskedWord, served.Status, truth.MaskedWord, truth.Status)
	}
}

// A miss that loaded a state before a concurrent write must not cache it.
func TestCachedFillSkipsStaleLoad(t *testing.T) {
	ctx := context.Background()
	mini, client := newTestValkey(t)
	inner := &hookStore{Store: NewMemory()}
	c := NewCached(inner, client, time.Minute)
	defer c.Close()

	p, _ := c.CreateOrGetPlayer(ctx, "ana")
	g, _ := c.CreateGame(ctx, p.ID, "CASA", 6)

	inner.afterGet = func() {
		inner.afterGet = nil
		if _, err := c.ModifyGame(ctx, g.ID, guess("C")); err != nil {
			t.Errorf("guess C: %v", err)
		}
	}
	stale, err := c.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stale.MaskedWord != "____" {
		t.Fatalf("load = %+v", stale)
	}
	if _, ok := cachedGame(t, mini, g.ID); ok {
		t.Fatal("state loaded before the write was cached")
	}

	got, err := c.GetGame(ctx, g.ID)
	if err != nil || got.MaskedWord != "C___" {
		t.Fatalf("after write = %+v, %v", got, err)
	}
}
