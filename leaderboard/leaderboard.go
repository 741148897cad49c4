package leaderboard

import "kittenboard/core"

// Entry is one ranked row: a player and their win count.
type Entry struct {
	Player core.PlayerID
	Wins   int64
}

// Board abstracts a ranking index over player win counts.
type Board interface {
	Update(player core.PlayerID, wins int64)
	Remove(player core.PlayerID)
	TopN(n int) []Entry
	Get(player core.PlayerID) (Entry, bool)
}
