// Package persist moves the aggregate snapshot between the in-memory state
// and the external blob store. Loads retry with a fixed delay and degrade
// to a fresh empty state; saves are fire-and-forget through a single worker
// so no two saves interleave.
package persist

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mkov/pixelwall/internal/dependencies/clock"
	"github.com/mkov/pixelwall/internal/model"
	"github.com/mkov/pixelwall/internal/storage"
)

// Config holds retry and queue settings for the gateway
type Config struct {
	// LoadAttempts is the maximum number of load attempts before the
	// gateway degrades to a fresh empty state
	LoadAttempts int

	// RetryDelay is the fixed delay between load attempts
	RetryDelay time.Duration

	// QueueSize bounds the pending-save queue
	QueueSize int

	// SaveTimeout bounds each individual store write
	SaveTimeout time.Duration
}

// DefaultConfig returns the standard retry schedule
func DefaultConfig() Config {
	return Config{
		LoadAttempts: 3,
		RetryDelay:   time.Second,
		QueueSize:    16,
		SaveTimeout:  5 * time.Second,
	}
}

// Gateway is the persistence boundary for the aggregate snapshot
type Gateway struct {
	store  storage.Store
	clock  clock.Clock
	logger *slog.Logger
	cfg    Config

	queue    chan *model.Snapshot
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a gateway and starts its save worker
func New(store storage.Store, clk clock.Clock, logger *slog.Logger, cfg Config) *Gateway {
	if cfg.LoadAttempts <= 0 {
		cfg.LoadAttempts = DefaultConfig().LoadAttempts
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = DefaultConfig().SaveTimeout
	}

	g := &Gateway{
		store:  store,
		clock:  clk,
		logger: logger.With(slog.String("component", "persist")),
		cfg:    cfg,
		queue:  make(chan *model.Snapshot, cfg.QueueSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go g.worker()
	return g
}

// Load reads the snapshot from the store, retrying transient failures per
// the configured schedule. It never fails: an absent snapshot or exhausted
// retries both yield a fresh empty state.
func (g *Gateway) Load(ctx context.Context) *model.Snapshot {
	for attempt := 1; attempt <= g.cfg.LoadAttempts; attempt++ {
		snap, err := g.store.LoadSnapshot(ctx)
		if err == nil {
			g.logger.Info("snapshot loaded")
			return snap
		}
		if errors.Is(err, model.ErrSnapshotNotFound) {
			g.logger.Info("no snapshot stored, starting fresh")
			return model.NewSnapshot()
		}

		g.logger.Warn("snapshot load failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", g.cfg.LoadAttempts),
			slog.Any("error", err))
		if attempt < g.cfg.LoadAttempts {
			g.clock.Sleep(g.cfg.RetryDelay)
		}
	}

	g.logger.Error("snapshot load attempts exhausted, starting fresh")
	return model.NewSnapshot()
}

// SaveAsync queues a snapshot for the save worker without blocking the
// caller. When the queue is full the oldest pending snapshot is discarded
// in favor of the newer state.
func (g *Gateway) SaveAsync(snap *model.Snapshot) {
	select {
	case <-g.stop:
		return
	default:
	}

	select {
	case g.queue <- snap:
		return
	default:
	}

	// Queue full: each queued snapshot supersedes its predecessors, so
	// drop one stale entry and retry once.
	select {
	case <-g.queue:
	default:
	}
	select {
	case g.queue <- snap:
	default:
		g.logger.Warn("save queue full, snapshot dropped")
	}
}

// Close stops accepting saves, drains the queue, and closes the store
func (g *Gateway) Close() error {
	g.stopOnce.Do(func() {
		close(g.stop)
	})
	<-g.done
	return g.store.Close()
}

func (g *Gateway) worker() {
	defer close(g.done)
	for {
		select {
		case snap := <-g.queue:
			g.save(snap)
		case <-g.stop:
			// Drain whatever is still pending before exiting
			for {
				select {
				case snap := <-g.queue:
					g.save(snap)
				default:
					return
				}
			}
		}
	}
}

// save is best effort: a failed save is logged, never propagated. The
// in-memory state is already correct; only durability is at risk.
func (g *Gateway) save(snap *model.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), g.cfg.SaveTimeout)
	defer cancel()

	if err := g.store.SaveSnapshot(ctx, snap); err != nil {
		g.logger.Error("snapshot save failed", slog.Any("error", err))
	}
}
