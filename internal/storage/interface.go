package storage

import (
	"context"

	"github.com/mkov/pixelwall/internal/model"
)

// Store is the external blob store the aggregate snapshot persists to.
// The whole snapshot lives under one fixed key; there is no incremental
// or delta persistence.
type Store interface {
	// SaveSnapshot overwrites the stored snapshot wholesale
	SaveSnapshot(ctx context.Context, snap *model.Snapshot) error

	// LoadSnapshot reads the stored snapshot, returning
	// model.ErrSnapshotNotFound when nothing has been saved yet
	LoadSnapshot(ctx context.Context) (*model.Snapshot, error)

	// Close releases any underlying connections
	Close() error
}
