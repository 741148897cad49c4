package core

import "time"

// EventType enumerates domain events. The values are the wire topics pushed
// to realtime observers.
type EventType string

const (
	EventSessionStarted     EventType = "sessionStarted"
	EventWinRecorded        EventType = "winRecorded"
	EventLeaderboardUpdated EventType = "leaderboardUpdated"
)

// Event represents an immutable domain event.
type Event struct {
	Type   EventType           `json:"type"`
	Time   time.Time           `json:"time"`
	Player PlayerID            `json:"player,omitempty"`
	Wins   int64               `json:"wins,omitempty"`
	Board  LeaderboardSnapshot `json:"board,omitempty"`
}

func NewSessionStarted(rec PlayerRecord) Event {
	return Event{Type: EventSessionStarted, Time: time.Now().UTC(), Player: rec.Identity, Wins: rec.Wins}
}

func NewWinRecorded(rec PlayerRecord) Event {
	return Event{Type: EventWinRecorded, Time: time.Now().UTC(), Player: rec.Identity, Wins: rec.Wins}
}

func NewLeaderboardUpdated(snap LeaderboardSnapshot) Event {
	return Event{Type: EventLeaderboardUpdated, Time: time.Now().UTC(), Board: snap}
}
