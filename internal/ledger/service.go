package ledger

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/mkov/pixelwall/internal/model"
)

// Entry is one leaderboard row. It marshals as a [username, score] pair,
// which is the wire shape the client renders.
type Entry struct {
	Username string
	Score    int
}

// MarshalJSON encodes the entry as a two-element array
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Username, e.Score})
}

// UnmarshalJSON decodes the two-element array form
func (e *Entry) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &e.Username); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &e.Score)
}

// Service owns the bounded chat log and the per-user score tally.
type Service struct {
	mu     sync.RWMutex
	chat   []model.ChatEntry
	scores map[string]int
	order  []string // usernames in first-score order, the TopN tiebreak
}

// New creates an empty ledger
func New() *Service {
	return &Service{
		chat:   []model.ChatEntry{},
		scores: make(map[string]int),
	}
}

// AppendChat adds a message to the log, evicting the oldest entry once the
// log exceeds model.ChatHistoryCap.
func (s *Service) AppendChat(username, message string) model.ChatEntry {
	entry := model.ChatEntry{Username: username, Message: message}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.chat = append(s.chat, entry)
	if len(s.chat) > model.ChatHistoryCap {
		s.chat = s.chat[1:]
	}
	return entry
}

// ChatHistory returns a copy of the retained chat log, oldest first
func (s *Service) ChatHistory() []model.ChatEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ChatEntry, len(s.chat))
	copy(out, s.chat)
	return out
}

// RecordScore increments the user's tally by one. Every call counts; scores
// are never decremented or reset.
func (s *Service) RecordScore(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.scores[username]; !ok {
		s.order = append(s.order, username)
	}
	s.scores[username]++
}

// Score returns the user's current tally
func (s *Service) Score(username string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scores[username]
}

// TopN returns up to n entries sorted by descending score. Ties keep
// first-score order, so the ranking is stable across calls.
func (s *Service) TopN(n int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.order))
	for _, username := range s.order {
		entries = append(entries, Entry{Username: username, Score: s.scores[username]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Snapshot returns copies of the score map and chat log for persistence
func (s *Service) Snapshot() (map[string]int, []model.ChatEntry) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scores := make(map[string]int, len(s.scores))
	for username, score := range s.scores {
		scores[username] = score
	}
	chat := make([]model.ChatEntry, len(s.chat))
	copy(chat, s.chat)
	return scores, chat
}

// Restore replaces the ledger contents from a snapshot. The insertion-order
// tiebreak is not persisted, so restored ties rank alphabetically (still
// stable across calls).
func (s *Service) Restore(scores map[string]int, chat []model.ChatEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scores = make(map[string]int, len(scores))
	s.order = make([]string, 0, len(scores))
	for username, score := range scores {
		s.scores[username] = score
		s.order = append(s.order, username)
	}
	sort.Strings(s.order)

	s.chat = make([]model.ChatEntry, 0, model.ChatHistoryCap)
	for _, entry := range chat {
		s.chat = append(s.chat, entry)
		if len(s.chat) > model.ChatHistoryCap {
			s.chat = s.chat[1:]
		}
	}
}
