package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"kittenboard/core"
	"kittenboard/tracker"
)

func TestSinkOnEventPostsToEndpoints(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = io.ReadAll(r.Body)
		_ = r.Body.Close()
	}))
	defer srv.Close()

	sink := New([]string{srv.URL})
	rec := core.NewPlayerRecord("u1")
	rec.Wins = 5
	sink.OnEvent(context.Background(), core.NewWinRecorded(rec))

	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", hits)
	}
}

func TestSinkAttachForwardsWins(t *testing.T) {
	var mu sync.Mutex
	var types []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev core.Event
		_ = json.NewDecoder(r.Body).Decode(&ev)
		mu.Lock()
		types = append(types, string(ev.Type))
		mu.Unlock()
		_ = r.Body.Close()
	}))
	defer srv.Close()

	svc := tracker.New()
	defer svc.Close()

	sink := New([]string{srv.URL})
	detach := sink.Attach(svc)
	defer detach()

	ctx := context.Background()
	if _, err := svc.StartSession(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RecordWin(ctx, "p1"); err != nil {
		t.Fatal(err)
	}

	// Sync dispatch: both deliveries happened before RecordWin returned.
	mu.Lock()
	defer mu.Unlock()
	if len(types) != 2 || types[0] != "winRecorded" || types[1] != "leaderboardUpdated" {
		t.Fatalf("unexpected deliveries: %v", types)
	}
}

func TestSinkNoEndpointsIsNoop(t *testing.T) {
	sink := New(nil)
	sink.OnEvent(context.Background(), core.NewSessionStarted(core.NewPlayerRecord("u1")))
}
