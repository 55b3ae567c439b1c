// internal/store/cache.go
//
// Game cache in front of any Store, backed by Valkey/Redis.
//
// Rules:
//   - The inner Store is the source of truth. Every write goes to it first.
//   - After a committed write the cached entry is dropped and the game's
//     generation counter is bumped, in one script.
//   - Reads fill the cache on a miss. A fill is stored only if the generation
//     is unchanged since before the inner load, so a state read before a
//     concurrent write can never be cached after it.
//   - Entries expire after the configured TTL; generations live twice as long.
//   - ModifyGame always reads the inner Store; the cache never feeds a guess.
//   - Players and the scoreboard are not cached.

package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/valkey-io/valkey-go"
	"golang.org/x/sync/singleflight"

	"github.com/robalobadob/hangman/internal/game"
)

const (
	defaultCacheTTL = 30 * time.Minute
	gameKeyPrefix   = "hangman:game:"
	genKeyPrefix    = "hangman:gen:"
)

// KEYS[1] entry, KEYS[2] generation; ARGV[1] generation TTL in ms.
var invalidateScript = valkey.NewLuaScript(`
redis.call('INCR', KEYS[2])
redis.call('PEXPIRE', KEYS[2], ARGV[1])
redis.call('DEL', KEYS[1])
return 1
`)

// KEYS[1] entry, KEYS[2] generation; ARGV[1] expected generation ("" when
// absent), ARGV[2] payload, ARGV[3] entry TTL in ms.
var fillScript = valkey.NewLuaScript(`
local gen = redis.call('GET', KEYS[2])
if (gen or '') ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// Cached decorates a Store with a Valkey cache for games.
type Cached struct {
	Store
	client valkey.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCached wraps inner. A ttl of zero selects the default (30m).
func NewCached(inner Store, client valkey.Client, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cached{Store: inner, client: client, ttl: ttl}
}

// Both keys carry the id as a hash tag so they share a cluster slot.
func gameKey(id int64) string { return gameKeyPrefix + "{" + strconv.FormatInt(id, 10) + "}" }
func genKey(id int64) string  { return genKeyPrefix + "{" + strconv.FormatInt(id, 10) + "}" }

// CreateGame stores the game in the inner Store. The id is new, but a stale
// entry could survive from a wiped database, so it is still invalidated.
func (c *Cached) CreateGame(ctx context.Context, playerID int64, secret string, maxAttempts int) (game.Game, error) {
	g, err := c.Store.CreateGame(ctx, playerID, secret, maxAttempts)
	if err != nil {
		return game.Game{}, err
	}
	c.invalidate(ctx, g.ID)
	return g, nil
}

// GetGame serves from the cache, falling back to the inner Store on a miss.
func (c *Cached) GetGame(ctx context.Context, id int64) (game.Game, error) {
	if g, ok := c.get(ctx, id); ok {
		return g, nil
	}
	v, err, _ := c.group.Do(gameKey(id), func() (any, error) {
		gen, genOK := c.generation(ctx, id)
		g, err := c.Store.GetGame(ctx, id)
		if err != nil {
			return game.Game{}, err
		}
		if genOK {
			c.fill(ctx, g, gen)
		}
		return g, nil
	})
	if err != nil {
		return game.Game{}, err
	}
	g := v.(game.Game)
	g.TriedLetters = append(game.Letters{}, g.TriedLetters...)
	return g, nil
}

// UpdateGame writes to the inner Store and drops the cached copy.
func (c *Cached) UpdateGame(ctx context.Context, g game.Game) error {
	if err := c.Store.UpdateGame(ctx, g); err != nil {
		return err
	}
	c.invalidate(ctx, g.ID)
	return nil
}

// ModifyGame delegates to the inner Store and drops the cached copy.
func (c *Cached) ModifyGame(ctx context.Context, id int64, fn ModifyFunc) (game.Game, error) {
	g, err := c.Store.ModifyGame(ctx, id, fn)
	if err != nil {
		return game.Game{}, err
	}
	c.invalidate(ctx, id)
	return g, nil
}

// Close closes the cache client and the inner Store.
func (c *Cached) Close() error {
	c.client.Close()
	return c.Store.Close()
}

func (c *Cached) get(ctx context.Context, id int64) (game.Game, bool) {
	raw, err := c.client.Do(ctx, c.client.B().Get().Key(gameKey(id)).Build()).ToString()
	if err != nil {
		if !valkey.IsValkeyNil(err) {
			log.Warn().Err(err).Int64("gameId", id).Msg("cache get")
		}
		return game.Game{}, false
	}
	var g game.Game
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		log.Warn().Err(err).Int64("gameId", id).Msg("cache decode")
		c.invalidate(ctx, id)
		return game.Game{}, false
	}
	return g, true
}

// generation reads the current generation of id. ok is false when it could
// not be read, in which case the caller must not fill.
func (c *Cached) generation(ctx context.Context, id int64) (gen string, ok bool) {
	gen, err := c.client.Do(ctx, c.client.B().Get().Key(genKey(id)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", true
		}
		log.Warn().Err(err).Int64("gameId", id).Msg("cache generation")
		return "", false
	}
	return gen, true
}

// fill caches g, loaded while the generation was gen.
func (c *Cached) fill(ctx context.Context, g game.Game, gen string) {
	data, err := json.Marshal(g)
	if err != nil {
		log.Warn().Err(err).Int64("gameId", g.ID).Msg("cache encode")
		return
	}
	keys := []string{gameKey(g.ID), genKey(g.ID)}
	args := []string{gen, string(data), strconv.FormatInt(c.ttl.Milliseconds(), 10)}
	stored, err := fillScript.Exec(ctx, c.client, keys, args).AsInt64()
	if err != nil {
		log.Warn().Err(err).Int64("gameId", g.ID).Msg("cache fill")
		return
	}
	if stored == 0 {
		log.Debug().Int64("gameId", g.ID).Msg("cache fill skipped; game changed during load")
	}
}

func (c *Cached) invalidate(ctx context.Context, id int64) {
	// Must outlive a cancelled request, or a stale entry would survive.
	ctx = context.WithoutCancel(ctx)
	keys := []string{gameKey(id), genKey(id)}
	args := []string{strconv.FormatInt((2 * c.ttl).Milliseconds(), 10)}
	if err := invalidateScript.Exec(ctx, c.client, keys, args).Error(); err != nil {
		log.Error().Err(err).Int64("gameId", id).Msg("cache invalidate")
	}
}

// Ping checks the cache connection.
func (c *Cached) Ping(ctx context.Context) error {
	if err := c.client.Do(ctx, c.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("valkey ping: %w", err)
	}
	return nil
}
