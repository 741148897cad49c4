package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"kittenboard/core"
	"kittenboard/engine"
)

// Sink posts domain events to configured HTTP endpoints. Delivery is
// best-effort: failures are logged and never surfaced to the game flow.
type Sink struct {
	client    *http.Client
	endpoints []string
	types     []core.EventType
}

// Option configures a Sink.
type Option func(*Sink)

// WithClient overrides the HTTP client (defaults to 2s timeout).
func WithClient(c *http.Client) Option {
	return func(s *Sink) {
		if c != nil {
			s.client = c
		}
	}
}

// WithEventTypes restricts delivery to the given event types. By default a
// sink forwards wins and leaderboard snapshots but not session starts.
func WithEventTypes(types ...core.EventType) Option {
	return func(s *Sink) { s.types = types }
}

// New creates a webhook sink.
func New(endpoints []string, opts ...Option) *Sink {
	s := &Sink{
		client: &http.Client{Timeout: 2 * time.Second},
		types:  []core.EventType{core.EventWinRecorded, core.EventLeaderboardUpdated},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.endpoints = append([]string{}, endpoints...)
	return s
}

// Attach subscribes the sink to the service's event stream. The returned
// function unsubscribes it again.
func (s *Sink) Attach(svc *engine.TrackerService) func() {
	var cancels []func()
	for _, typ := range s.types {
		cancels = append(cancels, svc.Subscribe(typ, s.OnEvent))
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

// OnEvent posts the event JSON to all endpoints.
func (s *Sink) OnEvent(ctx context.Context, e core.Event) {
	if len(s.endpoints) == 0 {
		return
	}
	body, err := json.Marshal(e)
	if err != nil {
		return
	}
	for _, ep := range s.endpoints {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep, bytes.NewReader(body))
		if err != nil {
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := s.client.Do(req)
		if err != nil {
			slog.Debug("webhook delivery failed", "endpoint", ep, "type", e.Type, "error", err)
			continue
		}
		_ = resp.Body.Close()
	}
}
