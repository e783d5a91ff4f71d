package factory

import (
	"time"

	"github.com/mkov/pixelwall/internal/accounts"
	"github.com/mkov/pixelwall/internal/dependencies/mocks"
	"github.com/mkov/pixelwall/internal/persist"
	"github.com/mkov/pixelwall/internal/storage/memory"
	"github.com/mkov/pixelwall/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	Store     *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	app := newWithDependencies(
		store,
		mockClock,
		accounts.PlaintextVerifier{},
		0,
		persist.DefaultConfig(),
		testutil.NopLogger(),
	)

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		Store:     store,
	}
}
