package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"

	mem "kittenboard/adapters/memory"
	"kittenboard/core"
	"kittenboard/engine"
	"kittenboard/realtime"
)

func newTestBackend(t *testing.T) (*realtime.Hub, *engine.TrackerService) {
	t.Helper()
	hub := realtime.NewHub()
	bus := engine.NewEventBus(engine.DispatchSync)
	svc := engine.NewTrackerService(mem.New(), bus, engine.DefaultBoardSize)
	bus.Subscribe(core.EventLeaderboardUpdated, func(ctx context.Context, e core.Event) { hub.Broadcast(ctx, e) })
	return hub, svc
}

func readEvent(t *testing.T, conn *gorillaws.Conn) core.Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	var ev core.Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return ev
}

func TestHandlerPushesSnapshotOnConnect(t *testing.T) {
	hub, svc := newTestBackend(t)
	ctx := context.Background()
	if _, err := svc.StartSession(ctx, "A"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := svc.RecordWin(ctx, "A"); err != nil {
			t.Fatal(err)
		}
	}

	server := httptest.NewServer(Handler(hub, svc))
	defer server.Close()

	wsURL := "ws" + server.URL[len("http"):]
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	ev := readEvent(t, conn)
	if ev.Type != core.EventLeaderboardUpdated {
		t.Fatalf("expected leaderboard snapshot, got %s", ev.Type)
	}
	if len(ev.Board) != 1 || ev.Board[0].Identity != "A" || ev.Board[0].Wins != 3 {
		t.Fatalf("unexpected snapshot: %+v", ev.Board)
	}
}

func TestHandlerStreamsWins(t *testing.T) {
	hub, svc := newTestBackend(t)
	ctx := context.Background()
	if _, err := svc.StartSession(ctx, "alice"); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(Handler(hub, svc))
	defer server.Close()

	wsURL := "ws" + server.URL[len("http"):]
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	readEvent(t, conn) // on-connect snapshot

	// ensure subscriber is registered before mutating
	time.Sleep(10 * time.Millisecond)
	if _, err := svc.RecordWin(ctx, "alice"); err != nil {
		t.Fatal(err)
	}

	ev := readEvent(t, conn)
	if ev.Type != core.EventLeaderboardUpdated || ev.Board[0].Wins != 1 {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestHandlerRefreshRequest(t *testing.T) {
	hub, svc := newTestBackend(t)
	ctx := context.Background()
	if _, err := svc.StartSession(ctx, "bob"); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(Handler(hub, svc))
	defer server.Close()

	wsURL := "ws" + server.URL[len("http"):]
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	readEvent(t, conn) // on-connect snapshot

	if err := conn.WriteMessage(gorillaws.TextMessage, []byte(`{"type":"refresh"}`)); err != nil {
		t.Fatal(err)
	}
	ev := readEvent(t, conn)
	if ev.Type != core.EventLeaderboardUpdated {
		t.Fatalf("expected snapshot after refresh, got %s", ev.Type)
	}
}
