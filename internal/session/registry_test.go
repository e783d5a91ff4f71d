package session

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mkov/pixelwall/internal/hub"
)

type RegistrySuite struct {
	suite.Suite
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.registry = NewRegistry()
}

func (s *RegistrySuite) TestRegisterCreatesAnonymousSession() {
	c := hub.NewClient("10.0.0.1")

	sess := s.registry.Register(c, "10.0.0.1")
	s.Equal("10.0.0.1", sess.Addr)
	s.False(sess.Identified())

	got, ok := s.registry.Lookup(c)
	s.True(ok)
	s.Same(sess, got)
}

func (s *RegistrySuite) TestIdentifySetsIdentity() {
	c := hub.NewClient("10.0.0.1")
	s.registry.Register(c, "10.0.0.1")

	s.registry.Identify(c, "alice", "fp1")

	sess, _ := s.registry.Lookup(c)
	s.True(sess.Identified())
	s.Equal("alice", sess.Username)
	s.Equal("fp1", sess.Fingerprint)
}

func (s *RegistrySuite) TestSessionsAreIndependent() {
	c1 := hub.NewClient("10.0.0.1")
	c2 := hub.NewClient("10.0.0.2")
	s.registry.Register(c1, "10.0.0.1")
	s.registry.Register(c2, "10.0.0.2")

	s.registry.Identify(c1, "alice", "fp1")

	sess2, _ := s.registry.Lookup(c2)
	s.False(sess2.Identified())
	s.Equal(2, s.registry.Count())
}

func (s *RegistrySuite) TestUnregisterDestroysSession() {
	c := hub.NewClient("10.0.0.1")
	s.registry.Register(c, "10.0.0.1")

	s.registry.Unregister(c)

	_, ok := s.registry.Lookup(c)
	s.False(ok)
	s.Zero(s.registry.Count())
}

func (s *RegistrySuite) TestIdentifyUnknownClientIsNoOp() {
	c := hub.NewClient("10.0.0.1")

	// Must not panic or create a session
	s.registry.Identify(c, "alice", "fp1")

	_, ok := s.registry.Lookup(c)
	s.False(ok)
}
