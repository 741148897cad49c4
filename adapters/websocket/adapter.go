package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"kittenboard/core"
	"kittenboard/realtime"

	gorillaws "github.com/gorilla/websocket"
)

// SnapshotSource provides the current leaderboard for on-connect and
// refresh pushes.
type SnapshotSource interface {
	Leaderboard(ctx context.Context, n int) (core.LeaderboardSnapshot, error)
	BoardSize() int
}

// Handler returns an http.Handler that upgrades to WebSocket, immediately
// pushes the current leaderboard to the new observer alone, and then
// streams hub events. Clients may send {"type":"refresh"} to request a
// fresh snapshot.
func Handler(hub *realtime.Hub, src SnapshotSource) http.Handler {
	upgrader := gorillaws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		obs, ch := hub.Subscribe(256)
		defer hub.Unsubscribe(obs.ID)

		sendSnapshot := func() {
			snap, err := src.Leaderboard(r.Context(), src.BoardSize())
			if err != nil {
				slog.Warn("snapshot for observer failed", "observer", obs.ID, "error", err)
				return
			}
			hub.Send(obs.ID, core.NewLeaderboardUpdated(snap))
		}
		// a new observer never waits for the next win to see standings
		sendSnapshot()

		// reader detects disconnects and serves refresh requests
		go func() {
			defer hub.Unsubscribe(obs.ID)
			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					return
				}
				var req struct {
					Type string `json:"type"`
				}
				if json.Unmarshal(msg, &req) == nil && req.Type == "refresh" {
					sendSnapshot()
				}
			}
		}()

		for ev := range ch {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(gorillaws.TextMessage, realtime.MarshalJSON(ev)); err != nil {
				return
			}
		}
	})
}
