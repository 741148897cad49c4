package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"kittenboard/core"
	"kittenboard/realtime"
	"kittenboard/tracker"

	ws "kittenboard/adapters/websocket"
)

// A minimal memory-backed dev server. No auth, no config, just the game loop:
//
//	curl -X POST localhost:8080/sessions -d '{"identity":"alice"}'
//	curl -X POST localhost:8080/wins -d '{"identity":"alice"}'
//	curl localhost:8080/leaderboard?n=10
func main() {
	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(textHandler))

	ctx := context.Background()
	hub := realtime.NewHub()
	svc := tracker.New(tracker.WithRealtime(hub))

	http.Handle("/ws", ws.Handler(hub, svc))
	http.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		id, ok := readIdentity(w, r)
		if !ok {
			return
		}
		rec, err := svc.StartSession(ctx, id)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		writeJSON(w, rec)
	})
	http.HandleFunc("/wins", func(w http.ResponseWriter, r *http.Request) {
		id, ok := readIdentity(w, r)
		if !ok {
			return
		}
		rec, err := svc.RecordWin(ctx, id)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		writeJSON(w, rec)
	})
	http.HandleFunc("/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		n := svc.BoardSize()
		if raw := r.URL.Query().Get("n"); raw != "" {
			n, _ = strconv.Atoi(raw)
		}
		snap, err := svc.Leaderboard(ctx, n)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		writeJSON(w, snap)
	})

	slog.Info("starting demo server on :8080")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}

func readIdentity(w http.ResponseWriter, r *http.Request) (core.PlayerID, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return "", false
	}
	var body struct {
		Identity string `json:"identity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "body must be JSON with an identity field", http.StatusBadRequest)
		return "", false
	}
	return core.PlayerID(body.Identity), true
}

func statusFor(err error) int {
	switch {
	case core.IsValidation(err):
		return http.StatusBadRequest
	case core.IsNotFound(err):
		return http.StatusNotFound
	case core.IsStoreUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
