package core

import (
	"strings"
	"time"
)

// PlayerID uniquely identifies a player. It is supplied by the client on
// session start, never regenerated, and doubles as the display name shown
// on the leaderboard.
type PlayerID string

// PlayerRecord is the durable per-player state: an identity and a win count.
// Wins is non-negative and monotonically non-decreasing over the record's
// lifetime; the core never deletes records.
type PlayerRecord struct {
	Identity PlayerID  `json:"identity"`
	Wins     int64     `json:"wins"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
}

// NewPlayerRecord returns a zero-win record for the given identity.
func NewPlayerRecord(id PlayerID) PlayerRecord {
	now := time.Now().UTC()
	return PlayerRecord{Identity: id, Created: now, Updated: now}
}

// LeaderboardEntry is one row of a leaderboard snapshot.
type LeaderboardEntry struct {
	Identity PlayerID `json:"identity"`
	Wins     int64    `json:"wins"`
}

// LeaderboardSnapshot is a fully materialized, ordered top-N view at one
// point in time. It is never a partial or incremental diff.
type LeaderboardSnapshot []LeaderboardEntry

// NormalizePlayerID trims surrounding whitespace. Case is preserved because
// the identity is also the display name.
func NormalizePlayerID(id PlayerID) (PlayerID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", ValidationError{Reason: "identity must not be empty"}
	}
	return PlayerID(s), nil
}
