package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mkov/pixelwall/internal/model"
	"github.com/mkov/pixelwall/internal/storage"
)

// Storage is an in-memory implementation of the snapshot store. It keeps
// the serialized bytes rather than the snapshot itself so tests exercise
// the same marshalling path as the Redis backend.
type Storage struct {
	mu   sync.RWMutex
	data []byte
}

// New creates an empty in-memory storage instance
func New() *Storage {
	return &Storage{}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// SaveSnapshot serializes and stores the snapshot
func (s *Storage) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}

// LoadSnapshot deserializes the stored snapshot
func (s *Storage) LoadSnapshot(ctx context.Context) (*model.Snapshot, error) {
	s.mu.RLock()
	data := s.data
	s.mu.RUnlock()

	if data == nil {
		return nil, model.ErrSnapshotNotFound
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Close is a no-op for the in-memory store
func (s *Storage) Close() error {
	return nil
}
