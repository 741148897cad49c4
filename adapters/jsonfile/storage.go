package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"kittenboard/core"
)

// Store persists all player records to a single JSON file via atomic
// rename. Suitable for demos and small deployments.
type Store struct {
	path string
	mu   sync.Mutex
	data map[core.PlayerID]core.PlayerRecord
}

func New(path string) (*Store, error) {
	s := &Store{path: path, data: map[core.PlayerID]core.PlayerRecord{}}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var raw map[string]core.PlayerRecord
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		s.data[core.PlayerID(k)] = v
	}
	return nil
}

func (s *Store) persist() error {
	tmp := s.path + ".tmp"
	raw := make(map[string]core.PlayerRecord, len(s.data))
	for k, v := range s.data {
		raw[string(k)] = v
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) GetOrCreate(_ context.Context, id core.PlayerID) (core.PlayerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.data[id]; ok {
		return rec, nil
	}
	rec := core.NewPlayerRecord(id)
	s.data[id] = rec
	if err := s.persist(); err != nil {
		// the create did not commit; forget it
		delete(s.data, id)
		return core.PlayerRecord{}, core.WrapStoreError("create", err)
	}
	return rec, nil
}

func (s *Store) Get(_ context.Context, id core.PlayerID) (core.PlayerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.data[id]
	if !ok {
		return core.PlayerRecord{}, core.NotFoundError{Identity: id}
	}
	return rec, nil
}

func (s *Store) IncrementWin(_ context.Context, id core.PlayerID) (core.PlayerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.data[id]
	if !ok {
		return core.PlayerRecord{}, core.NotFoundError{Identity: id}
	}
	next := prev
	next.Wins++
	next.Updated = time.Now().UTC()
	s.data[id] = next
	if err := s.persist(); err != nil {
		// no increment without a durable commit
		s.data[id] = prev
		return core.PlayerRecord{}, core.WrapStoreError("increment", err)
	}
	return next, nil
}

func (s *Store) TopN(_ context.Context, n int) ([]core.PlayerRecord, error) {
	if n <= 0 {
		return nil, core.ValidationError{Reason: "top-n size must be positive"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.PlayerRecord, 0, len(s.data))
	for _, rec := range s.data {
		out = append(out, rec)
	}
	core.SortByRank(out)
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}
