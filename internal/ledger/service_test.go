package ledger

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mkov/pixelwall/internal/model"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.service = New()
}

func (s *ServiceSuite) TestChatLogKeepsOrder() {
	s.service.AppendChat("alice", "hello")
	s.service.AppendChat("bob", "hi")

	history := s.service.ChatHistory()
	s.Require().Len(history, 2)
	s.Equal(model.ChatEntry{Username: "alice", Message: "hello"}, history[0])
	s.Equal(model.ChatEntry{Username: "bob", Message: "hi"}, history[1])
}

func (s *ServiceSuite) TestChatLogEvictsOldest() {
	for i := 1; i <= 11; i++ {
		s.service.AppendChat("alice", fmt.Sprintf("msg-%d", i))
	}

	history := s.service.ChatHistory()
	s.Require().Len(history, model.ChatHistoryCap)

	// After 11 appends the log holds appends 2..11 in original order
	for i, entry := range history {
		s.Equal(fmt.Sprintf("msg-%d", i+2), entry.Message)
	}
}

func (s *ServiceSuite) TestChatLogNeverExceedsCap() {
	for i := 0; i < 50; i++ {
		s.service.AppendChat("alice", "spam")
		s.LessOrEqual(len(s.service.ChatHistory()), model.ChatHistoryCap)
	}
}

func (s *ServiceSuite) TestScoreCountsEveryCall() {
	s.Zero(s.service.Score("alice"))

	s.service.RecordScore("alice")
	s.service.RecordScore("alice")
	s.service.RecordScore("bob")

	s.Equal(2, s.service.Score("alice"))
	s.Equal(1, s.service.Score("bob"))
}

func (s *ServiceSuite) TestTopNSortsDescending() {
	for i := 0; i < 3; i++ {
		s.service.RecordScore("carol")
	}
	s.service.RecordScore("alice")
	s.service.RecordScore("bob")
	s.service.RecordScore("bob")

	top := s.service.TopN(10)
	s.Require().Len(top, 3)
	s.Equal(Entry{Username: "carol", Score: 3}, top[0])
	s.Equal(Entry{Username: "bob", Score: 2}, top[1])
	s.Equal(Entry{Username: "alice", Score: 1}, top[2])
}

func (s *ServiceSuite) TestTopNTruncates() {
	for i := 0; i < 15; i++ {
		s.service.RecordScore(fmt.Sprintf("user-%02d", i))
	}

	s.Len(s.service.TopN(10), 10)
}

func (s *ServiceSuite) TestTopNTiebreakIsStable() {
	s.service.RecordScore("zoe")
	s.service.RecordScore("amy")

	first := s.service.TopN(10)
	for i := 0; i < 5; i++ {
		s.Equal(first, s.service.TopN(10))
	}

	// Ties keep first-score order: zoe scored before amy
	s.Equal("zoe", first[0].Username)
	s.Equal("amy", first[1].Username)
}

func (s *ServiceSuite) TestEntryMarshalsAsPair() {
	data, err := json.Marshal(Entry{Username: "alice", Score: 3})
	s.Require().NoError(err)
	s.JSONEq(`["alice",3]`, string(data))

	var decoded Entry
	s.Require().NoError(json.Unmarshal(data, &decoded))
	s.Equal(Entry{Username: "alice", Score: 3}, decoded)
}

func (s *ServiceSuite) TestSnapshotRestoreRoundTrip() {
	s.service.RecordScore("alice")
	s.service.RecordScore("alice")
	s.service.AppendChat("alice", "hello")

	scores, chat := s.service.Snapshot()

	restored := New()
	restored.Restore(scores, chat)

	gotScores, gotChat := restored.Snapshot()
	s.Equal(scores, gotScores)
	s.Equal(chat, gotChat)
	s.Equal(2, restored.Score("alice"))
}

func (s *ServiceSuite) TestSnapshotIsDeepCopy() {
	s.service.RecordScore("alice")

	scores, chat := s.service.Snapshot()
	scores["alice"] = 99
	_ = append(chat, model.ChatEntry{Username: "x", Message: "y"})

	s.Equal(1, s.service.Score("alice"))
	s.Empty(s.service.ChatHistory())
}

func (s *ServiceSuite) TestRestoreTruncatesOversizedChat() {
	chat := make([]model.ChatEntry, 20)
	for i := range chat {
		chat[i] = model.ChatEntry{Username: "a", Message: fmt.Sprintf("m%d", i)}
	}

	s.service.Restore(map[string]int{}, chat)

	history := s.service.ChatHistory()
	s.Require().Len(history, model.ChatHistoryCap)
	s.Equal("m19", history[len(history)-1].Message)
}
