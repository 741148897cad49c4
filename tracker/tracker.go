package tracker

import (
	"context"

	mem "kittenboard/adapters/memory"
	"kittenboard/core"
	"kittenboard/engine"
	"kittenboard/realtime"
)

// Option configures the tracker service builder.
type Option func(*config)

type config struct {
	storage   engine.Storage
	mode      engine.DispatchMode
	hub       *realtime.Hub
	boardSize int
}

// WithStorage sets the persistence adapter.
func WithStorage(s engine.Storage) Option { return func(c *config) { c.storage = s } }

// WithDispatchMode selects sync or async event dispatch. Async gives up the
// per-observer snapshot ordering guarantee; keep the default for hubs that
// feed live leaderboards.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a broadcast hub to receive all domain events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithBoardSize sets the top-N width of broadcast snapshots.
func WithBoardSize(n int) Option { return func(c *config) { c.boardSize = n } }

// New builds a configured TrackerService. If not provided, defaults are used:
//   - storage: in-memory
//   - dispatch: sync (preserves snapshot ordering)
//   - board size: engine.DefaultBoardSize
func New(opts ...Option) *engine.TrackerService {
	cfg := &config{mode: engine.DispatchSync, boardSize: engine.DefaultBoardSize}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.storage == nil {
		cfg.storage = mem.New()
	}
	bus := engine.NewEventBus(cfg.mode)
	svc := engine.NewTrackerService(cfg.storage, bus, cfg.boardSize)
	if cfg.hub != nil {
		// Bridge all domain events to realtime observers
		bus.Subscribe(core.EventSessionStarted, func(ctx context.Context, e core.Event) { cfg.hub.Broadcast(ctx, e) })
		bus.Subscribe(core.EventWinRecorded, func(ctx context.Context, e core.Event) { cfg.hub.Broadcast(ctx, e) })
		bus.Subscribe(core.EventLeaderboardUpdated, func(ctx context.Context, e core.Event) { cfg.hub.Broadcast(ctx, e) })
	}
	return svc
}
