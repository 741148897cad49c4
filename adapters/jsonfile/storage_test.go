package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"kittenboard/core"
)

func TestStorePersistAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "players.json")

	store, err := New(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, err := store.GetOrCreate(context.Background(), "alice"); err != nil {
		t.Fatalf("create: %v", err)
	}
	rec, err := store.IncrementWin(context.Background(), "alice")
	if err != nil || rec.Wins != 1 {
		t.Fatalf("increment: rec=%v err=%v", rec, err)
	}

	// ensure file written
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s", path)
	}

	// reload
	reloaded, err := New(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, err := reloaded.Get(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Wins != 1 {
		t.Fatalf("expected 1 win after reload, got %d", got.Wins)
	}
}

func TestStoreUnknownIdentity(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "players.json"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.IncrementWin(context.Background(), "ghost"); !core.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := store.Get(context.Background(), "ghost"); !core.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreTopNOrdering(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "players.json"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for id, wins := range map[core.PlayerID]int{"A": 5, "B": 9, "C": 9, "D": 1} {
		if _, err := store.GetOrCreate(ctx, id); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < wins; i++ {
			if _, err := store.IncrementWin(ctx, id); err != nil {
				t.Fatal(err)
			}
		}
	}
	top, err := store.TopN(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []core.PlayerID{"B", "C", "A"}
	for i, id := range want {
		if top[i].Identity != id {
			t.Fatalf("rank %d: want %s, got %s", i, id, top[i].Identity)
		}
	}
}

func TestStoreFailedPersistRollsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "players.json")
	store, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := store.GetOrCreate(ctx, "alice"); err != nil {
		t.Fatal(err)
	}

	// make the directory unwritable so persist fails
	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(dir, 0o755)

	if _, err := store.IncrementWin(ctx, "alice"); !core.IsStoreUnavailable(err) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
	rec, err := store.Get(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Wins != 0 {
		t.Fatalf("failed persist must leave prior count, got %d", rec.Wins)
	}
}
