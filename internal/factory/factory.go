package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mkov/pixelwall/internal/accounts"
	"github.com/mkov/pixelwall/internal/canvas"
	"github.com/mkov/pixelwall/internal/dependencies/clock"
	"github.com/mkov/pixelwall/internal/hub"
	"github.com/mkov/pixelwall/internal/ledger"
	"github.com/mkov/pixelwall/internal/persist"
	"github.com/mkov/pixelwall/internal/ratelimit"
	"github.com/mkov/pixelwall/internal/session"
	"github.com/mkov/pixelwall/internal/storage"
	"github.com/mkov/pixelwall/internal/storage/memory"
	redisstorage "github.com/mkov/pixelwall/internal/storage/redis"
	"github.com/mkov/pixelwall/internal/ws"
)

// Restore loads the persisted snapshot and replaces the in-memory state.
// Intended to run once at startup, before connections are accepted.
func (a *App) Restore(ctx context.Context) {
	snap := a.Gateway.Load(ctx)
	a.Canvas.Replace(snap.Canvas)
	a.Accounts.Restore(snap.Users)
	a.Ledger.Restore(snap.Leaderboard, snap.ChatHistory)
}

// Close shuts down the hub and flushes any pending snapshot saves
func (a *App) Close() error {
	a.Hub.Close()
	return a.Gateway.Close()
}

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Store
	Gateway *persist.Gateway

	// External dependencies
	Clock clock.Clock

	// Components
	Canvas   *canvas.Service
	Accounts *accounts.Directory
	Limiter  *ratelimit.Limiter
	Ledger   *ledger.Service
	Sessions *session.Registry
	Hub      *hub.Hub
	Handler  *ws.Handler
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// Verifier decides how passwords are stored and checked (optional)
	// If nil, defaults to plaintext storage
	Verifier accounts.CredentialVerifier
	// RateLimitWindow is the per-key pixel cooldown (optional)
	// If zero, defaults to ratelimit.DefaultWindow
	RateLimitWindow time.Duration
	// PersistConfig tunes snapshot loading and saving (optional)
	// If zero value, defaults to persist.DefaultConfig()
	PersistConfig persist.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Store
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	verifier := cfg.Verifier
	if verifier == nil {
		verifier = accounts.PlaintextVerifier{}
	}

	persistCfg := cfg.PersistConfig
	if persistCfg.LoadAttempts == 0 {
		persistCfg = persist.DefaultConfig()
	}

	return newWithDependencies(store, clock.New(), verifier, cfg.RateLimitWindow, persistCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Store,
	clk clock.Clock,
	verifier accounts.CredentialVerifier,
	window time.Duration,
	persistCfg persist.Config,
	logger *slog.Logger,
) *App {
	canvasService := canvas.New(logger)
	directory := accounts.New(verifier, logger)
	limiter := ratelimit.New(directory, window)
	ledgerService := ledger.New()
	sessions := session.NewRegistry()
	h := hub.New(logger)
	gateway := persist.New(store, clk, logger, persistCfg)

	handler := ws.NewHandler(ws.Config{
		Logger:   logger,
		Clock:    clk,
		Canvas:   canvasService,
		Accounts: directory,
		Limiter:  limiter,
		Ledger:   ledgerService,
		Sessions: sessions,
		Hub:      h,
		Gateway:  gateway,
	})

	return &App{
		Storage:  store,
		Gateway:  gateway,
		Clock:    clk,
		Canvas:   canvasService,
		Accounts: directory,
		Limiter:  limiter,
		Ledger:   ledgerService,
		Sessions: sessions,
		Hub:      h,
		Handler:  handler,
	}
}
