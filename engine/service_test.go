package engine

import (
	"context"
	"sync"
	"testing"

	mem "kittenboard/adapters/memory"
	"kittenboard/core"
)

func newTestTracker() *TrackerService {
	return NewTrackerService(mem.New(), NewEventBus(DispatchSync), DefaultBoardSize)
}

func TestStartSessionIdempotent(t *testing.T) {
	svc := newTestTracker()
	ctx := context.Background()

	first, err := svc.StartSession(ctx, "whiskers")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RecordWin(ctx, "whiskers"); err != nil {
		t.Fatal(err)
	}
	second, err := svc.StartSession(ctx, "whiskers")
	if err != nil {
		t.Fatal(err)
	}
	if second.Wins != 1 {
		t.Fatalf("second start must not reset wins, got %d", second.Wins)
	}
	if second.Identity != first.Identity {
		t.Fatalf("identity changed: %q vs %q", second.Identity, first.Identity)
	}
}

func TestRecordWinMonotonic(t *testing.T) {
	svc := newTestTracker()
	ctx := context.Background()
	if _, err := svc.StartSession(ctx, "boots"); err != nil {
		t.Fatal(err)
	}
	for want := int64(1); want <= 5; want++ {
		rec, err := svc.RecordWin(ctx, "boots")
		if err != nil {
			t.Fatal(err)
		}
		if rec.Wins != want {
			t.Fatalf("want %d wins, got %d", want, rec.Wins)
		}
	}
}

func TestRecordWinUnknownIdentity(t *testing.T) {
	svc := newTestTracker()
	ctx := context.Background()

	if _, err := svc.RecordWin(ctx, "ghost"); !core.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	snap, err := svc.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap) != 0 {
		t.Fatalf("store must stay unchanged, got %v", snap)
	}
}

func TestRecordWinBroadcastsSnapshot(t *testing.T) {
	svc := newTestTracker()
	ctx := context.Background()

	var boards []core.LeaderboardSnapshot
	svc.Subscribe(core.EventLeaderboardUpdated, func(ctx context.Context, e core.Event) {
		boards = append(boards, e.Board)
	})

	if _, err := svc.StartSession(ctx, "mittens"); err != nil {
		t.Fatal(err)
	}
	if len(boards) != 0 {
		t.Fatal("session start must not broadcast the leaderboard")
	}
	if _, err := svc.RecordWin(ctx, "mittens"); err != nil {
		t.Fatal(err)
	}
	if len(boards) != 1 {
		t.Fatalf("expected one broadcast, got %d", len(boards))
	}
	if boards[0][0].Identity != "mittens" || boards[0][0].Wins != 1 {
		t.Fatalf("unexpected board: %v", boards[0])
	}
}

func TestRecordWinConcurrent(t *testing.T) {
	svc := newTestTracker()
	ctx := context.Background()
	if _, err := svc.StartSession(ctx, "ziggy"); err != nil {
		t.Fatal(err)
	}

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.RecordWin(ctx, "ziggy"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	rec, err := svc.Player(ctx, "ziggy")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Wins != n {
		t.Fatalf("lost updates: want %d wins, got %d", n, rec.Wins)
	}
}

func TestLeaderboardValidation(t *testing.T) {
	svc := newTestTracker()
	if _, err := svc.Leaderboard(context.Background(), 0); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStartSessionValidation(t *testing.T) {
	svc := newTestTracker()
	if _, err := svc.StartSession(context.Background(), "   "); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
