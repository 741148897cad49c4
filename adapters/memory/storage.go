package memory

import (
	"context"
	"sync"
	"time"

	"kittenboard/core"
	"kittenboard/leaderboard"
)

// Store is a concurrent in-memory player record store. A single mutex
// serializes all mutations; the skiplist index keeps TopN at O(log n).
// Suitable for tests and single-process demos.
type Store struct {
	mu      sync.RWMutex
	records map[core.PlayerID]core.PlayerRecord
	board   *leaderboard.SkipList
}

func New() *Store {
	return &Store{
		records: map[core.PlayerID]core.PlayerRecord{},
		board:   leaderboard.NewSkipList(),
	}
}

func (s *Store) GetOrCreate(_ context.Context, id core.PlayerID) (core.PlayerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[id]; ok {
		return rec, nil
	}
	rec := core.NewPlayerRecord(id)
	s.records[id] = rec
	s.board.Update(id, 0)
	return rec, nil
}

func (s *Store) Get(_ context.Context, id core.PlayerID) (core.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return core.PlayerRecord{}, core.NotFoundError{Identity: id}
	}
	return rec, nil
}

func (s *Store) IncrementWin(_ context.Context, id core.PlayerID) (core.PlayerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return core.PlayerRecord{}, core.NotFoundError{Identity: id}
	}
	rec.Wins++
	rec.Updated = time.Now().UTC()
	s.records[id] = rec
	s.board.Update(id, rec.Wins)
	return rec, nil
}

func (s *Store) TopN(_ context.Context, n int) ([]core.PlayerRecord, error) {
	if n <= 0 {
		return nil, core.ValidationError{Reason: "top-n size must be positive"}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.board.TopN(n)
	out := make([]core.PlayerRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, s.records[e.Player])
	}
	return out, nil
}

var _ interface {
	GetOrCreate(context.Context, core.PlayerID) (core.PlayerRecord, error)
	Get(context.Context, core.PlayerID) (core.PlayerRecord, error)
	IncrementWin(context.Context, core.PlayerID) (core.PlayerRecord, error)
	TopN(context.Context, int) ([]core.PlayerRecord, error)
} = (*Store)(nil)
