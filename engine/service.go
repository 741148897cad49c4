package engine

import (
	"context"
	"log/slog"
	"sync"

	"kittenboard/core"
)

// DefaultBoardSize is the leaderboard width broadcast to observers.
const DefaultBoardSize = 10

// TrackerService wires the player record store, event bus, and leaderboard
// projection into the session/win API.
type TrackerService struct {
	storage   Storage
	bus       *EventBus
	boardSize int

	// mu serializes win mutation with snapshot publication so observers
	// receive snapshots in store-mutation order.
	mu sync.Mutex
}

func NewTrackerService(storage Storage, bus *EventBus, boardSize int) *TrackerService {
	if storage == nil || bus == nil {
		panic("NewTrackerService requires non-nil storage and bus")
	}
	if boardSize <= 0 {
		boardSize = DefaultBoardSize
	}
	return &TrackerService{storage: storage, bus: bus, boardSize: boardSize}
}

// Subscribe convenience method.
func (t *TrackerService) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return t.bus.Subscribe(typ, handler)
}

func (t *TrackerService) Publish(ctx context.Context, ev core.Event) {
	t.bus.Publish(ctx, ev)
}

// BoardSize returns the top-N width used for broadcast snapshots.
func (t *TrackerService) BoardSize() int { return t.boardSize }

// StartSession idempotently creates-or-fetches the player record for id.
// Starting a session never changes the relative order of ranked players,
// so it does not trigger a leaderboard broadcast.
func (t *TrackerService) StartSession(ctx context.Context, id core.PlayerID) (core.PlayerRecord, error) {
	normalized, err := core.NormalizePlayerID(id)
	if err != nil {
		return core.PlayerRecord{}, err
	}
	rec, err := t.storage.GetOrCreate(ctx, normalized)
	if err != nil {
		return core.PlayerRecord{}, err
	}
	t.bus.Publish(ctx, core.NewSessionStarted(rec))
	return rec, nil
}

// RecordWin increments the player's win count and publishes a fresh
// leaderboard snapshot. Unknown identities fail with core.NotFoundError;
// the caller must have started a session first.
func (t *TrackerService) RecordWin(ctx context.Context, id core.PlayerID) (core.PlayerRecord, error) {
	normalized, err := core.NormalizePlayerID(id)
	if err != nil {
		return core.PlayerRecord{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, err := t.storage.IncrementWin(ctx, normalized)
	if err != nil {
		return core.PlayerRecord{}, err
	}
	t.bus.Publish(ctx, core.NewWinRecorded(rec))
	records, err := t.storage.TopN(ctx, t.boardSize)
	if err != nil {
		// The win is durably recorded; a failed projection only costs this
		// broadcast, never the mutation.
		slog.Warn("leaderboard projection failed after win", "player", normalized, "error", err)
		return rec, nil
	}
	t.bus.Publish(ctx, core.NewLeaderboardUpdated(core.Project(records, t.boardSize)))
	return rec, nil
}

// Player fetches a single record without creating one.
func (t *TrackerService) Player(ctx context.Context, id core.PlayerID) (core.PlayerRecord, error) {
	normalized, err := core.NormalizePlayerID(id)
	if err != nil {
		return core.PlayerRecord{}, err
	}
	return t.storage.Get(ctx, normalized)
}

// Leaderboard returns the current top-n snapshot. Read-only.
func (t *TrackerService) Leaderboard(ctx context.Context, n int) (core.LeaderboardSnapshot, error) {
	if n <= 0 {
		return nil, core.ValidationError{Reason: "leaderboard size must be positive"}
	}
	records, err := t.storage.TopN(ctx, n)
	if err != nil {
		return nil, err
	}
	return core.Project(records, n), nil
}

func (t *TrackerService) Close() { t.bus.Close() }
