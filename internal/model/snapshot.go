package model

// Snapshot is the aggregate unit of persistence: everything that survives a
// restart. Sessions and the address/fingerprint rate-limit ledgers are
// deliberately excluded (process-local state).
type Snapshot struct {
	Canvas      Grid                `json:"canvas"`
	Users       map[string]*Account `json:"users"`
	Leaderboard map[string]int      `json:"leaderboard"`
	ChatHistory []ChatEntry         `json:"chatHistory"`
}

// NewSnapshot returns a snapshot of the empty initial state: default-colored
// grid, no accounts, no scores, no chat.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Canvas:      NewGrid(),
		Users:       make(map[string]*Account),
		Leaderboard: make(map[string]int),
		ChatHistory: []ChatEntry{},
	}
}
