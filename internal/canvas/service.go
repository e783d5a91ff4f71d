package canvas

import (
	"log/slog"
	"sync"

	"github.com/mkov/pixelwall/internal/model"
)

// Service owns the authoritative pixel grid. All access goes through its
// mutex; Get returns a deep copy so callers can serialize it freely.
type Service struct {
	mu     sync.RWMutex
	grid   model.Grid
	logger *slog.Logger
}

// New creates a canvas service with a fresh default-colored grid
func New(logger *slog.Logger) *Service {
	return &Service{
		grid:   model.NewGrid(),
		logger: logger.With(slog.String("component", "canvas")),
	}
}

// Get returns a deep snapshot of the grid
func (s *Service) Get() model.Grid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grid.Clone()
}

// Set writes one cell. Out-of-range coordinates are a silent no-op; the
// return value reports whether the cell was written.
func (s *Service) Set(x, y int, color string) bool {
	if x < 0 || x >= model.GridSize || y < 0 || y >= model.GridSize {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid[y][x] = color
	return true
}

// Replace installs a restored grid. A malformed grid (dimension mismatch)
// is discarded in favor of a freshly initialized one.
func (s *Service) Replace(g model.Grid) {
	if !g.WellFormed() {
		s.logger.Warn("discarding malformed grid snapshot",
			slog.Int("rows", len(g)))
		g = model.NewGrid()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid = g.Clone()
}
