// Package scoreboard derives per-player win/loss rankings from game history.
package scoreboard

import (
	"math"
	"sort"

	"github.com/robalobadob/hangman/internal/game"
)

// Entry is one ranked player.
type Entry struct {
	PlayerName  string  `json:"player_name"`
	GamesPlayed int     `json:"games_played"`
	GamesWon    int     `json:"games_won"`
	WinRate     float64 `json:"win_rate"` // percent, 2 decimals
}

// Compute groups outcomes by player id and ranks them by games won, then
// games played, both descending. Remaining ties keep first-appearance order.
// Outcomes with an empty status count the player without counting a game.
func Compute(outcomes []game.Outcome) []Entry {
	idx := make(map[int64]int)
	out := []Entry{}
	for _, o := range outcomes {
		i, ok := idx[o.PlayerID]
		if !ok {
			i = len(out)
			idx[o.PlayerID] = i
			out = append(out, Entry{PlayerName: o.PlayerName})
		}
		if o.Status == "" {
			continue
		}
		out[i].GamesPlayed++
		if o.Status == game.StatusWin {
			out[i].GamesWon++
		}
	}
	for i := range out {
		out[i].WinRate = WinRate(out[i].GamesWon, out[i].GamesPlayed)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].GamesWon != out[j].GamesWon {
			return out[i].GamesWon > out[j].GamesWon
		}
		return out[i].GamesPlayed > out[j].GamesPlayed
	})
	return out
}

// WinRate returns won/played as a percentage rounded to 2 decimals, or 0
// when nothing was played.
func WinRate(won, played int) float64 {
	if played == 0 {
		return 0
	}
	return math.Round(float64(won)/float64(played)*100*100) / 100
}
