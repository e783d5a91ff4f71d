package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mkov/pixelwall/internal/accounts"
	"github.com/mkov/pixelwall/internal/testutil"
)

type LimiterSuite struct {
	suite.Suite
	dir     *accounts.Directory
	limiter *Limiter
	t0      time.Time
}

func TestLimiterSuite(t *testing.T) {
	suite.Run(t, new(LimiterSuite))
}

func (s *LimiterSuite) SetupTest() {
	s.dir = accounts.New(accounts.PlaintextVerifier{}, testutil.NopLogger())
	_, err := s.dir.Register("alice", "pw1", "fp1")
	s.Require().NoError(err)
	s.limiter = New(s.dir, 0)
	s.t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *LimiterSuite) TestFirstWriteAlwaysAllowed() {
	d := s.limiter.CheckAndReserve("alice", "10.0.0.1", "fp1", s.t0)
	s.True(d.Allowed)
	s.Zero(d.Wait)
}

func (s *LimiterSuite) TestWriteWithinWindowRejected() {
	s.limiter.CheckAndReserve("alice", "10.0.0.1", "fp1", s.t0)

	d := s.limiter.CheckAndReserve("alice", "10.0.0.1", "fp1", s.t0.Add(time.Second))
	s.False(d.Allowed)
	s.Equal(59*time.Second, d.Wait)
}

func (s *LimiterSuite) TestWindowBoundary() {
	s.limiter.CheckAndReserve("alice", "10.0.0.1", "fp1", s.t0)

	// One millisecond short of the window: rejected with 1ms remaining
	d := s.limiter.CheckAndReserve("alice", "10.0.0.1", "fp1", s.t0.Add(59999*time.Millisecond))
	s.False(d.Allowed)
	s.Equal(time.Millisecond, d.Wait)

	// Exactly at the window: accepted
	d = s.limiter.CheckAndReserve("alice", "10.0.0.1", "fp1", s.t0.Add(60000*time.Millisecond))
	s.True(d.Allowed)
}

func (s *LimiterSuite) TestAddressLedgerBlocksOtherAccounts() {
	_, err := s.dir.Register("bob", "pw2", "fp2")
	s.Require().NoError(err)

	s.limiter.CheckAndReserve("alice", "10.0.0.1", "fp1", s.t0)

	// Fresh account and fingerprint, same address
	d := s.limiter.CheckAndReserve("bob", "10.0.0.1", "fp2", s.t0.Add(10*time.Second))
	s.False(d.Allowed)
	s.Equal(50*time.Second, d.Wait)
}

func (s *LimiterSuite) TestFingerprintLedgerBlocksOtherAccounts() {
	_, err := s.dir.Register("bob", "pw2", "")
	s.Require().NoError(err)

	s.limiter.CheckAndReserve("alice", "10.0.0.1", "fp1", s.t0)

	// Fresh account and address, same fingerprint
	d := s.limiter.CheckAndReserve("bob", "10.0.0.2", "fp1", s.t0.Add(10*time.Second))
	s.False(d.Allowed)
	s.Equal(50*time.Second, d.Wait)
}

func (s *LimiterSuite) TestAccountLedgerBlocksOtherAddresses() {
	s.limiter.CheckAndReserve("alice", "10.0.0.1", "fp1", s.t0)

	// Same account from a fresh address and fingerprint
	d := s.limiter.CheckAndReserve("alice", "10.0.0.2", "fp2", s.t0.Add(10*time.Second))
	s.False(d.Allowed)
	s.Equal(50*time.Second, d.Wait)
}

func (s *LimiterSuite) TestWaitIsMaxOfAllKeys() {
	s.limiter.CheckAndReserve("alice", "10.0.0.1", "fp1", s.t0)

	// Stamp the address again via a different account 20s later; the
	// address cooldown now ends later than alice's account cooldown.
	_, err := s.dir.Register("bob", "pw2", "fp2")
	s.Require().NoError(err)
	s.limiter.CheckAndReserve("bob", "10.0.0.1", "fp2", s.t0.Add(61*time.Second))

	d := s.limiter.CheckAndReserve("alice", "10.0.0.1", "fp1", s.t0.Add(70*time.Second))
	s.False(d.Allowed)
	s.Equal(51*time.Second, d.Wait)
}

func (s *LimiterSuite) TestEmptyKeysAreNotTracked() {
	s.limiter.CheckAndReserve("alice", "", "", s.t0)

	_, err := s.dir.Register("bob", "pw2", "")
	s.Require().NoError(err)

	// bob with empty keys is only gated by his own account timestamp
	d := s.limiter.CheckAndReserve("bob", "", "", s.t0.Add(time.Second))
	s.True(d.Allowed)
}

func (s *LimiterSuite) TestRejectionDoesNotStampLedgers() {
	s.limiter.CheckAndReserve("alice", "10.0.0.1", "fp1", s.t0)
	s.limiter.CheckAndReserve("alice", "10.0.0.1", "fp1", s.t0.Add(30*time.Second))

	// The rejected attempt at t0+30s must not have extended the cooldown
	d := s.limiter.CheckAndReserve("alice", "10.0.0.1", "fp1", s.t0.Add(60*time.Second))
	s.True(d.Allowed)
}

func (s *LimiterSuite) TestAccountTimestampSurvivesViaDirectory() {
	// Simulate a persisted account cooldown after the process-local
	// ledgers were lost to a restart.
	s.dir.SetLastWrite("alice", s.t0.UnixMilli())
	fresh := New(s.dir, 0)

	d := fresh.CheckAndReserve("alice", "10.0.0.9", "fp9", s.t0.Add(10*time.Second))
	s.False(d.Allowed)
	s.Equal(50*time.Second, d.Wait)

	// But a different account on the old address is clear: the address
	// ledger did not survive.
	_, err := s.dir.Register("bob", "pw2", "")
	s.Require().NoError(err)
	d = fresh.CheckAndReserve("bob", "10.0.0.1", "", s.t0.Add(10*time.Second))
	s.True(d.Allowed)
}

func (s *LimiterSuite) TestRemainingDoesNotReserve() {
	s.Zero(s.limiter.Remaining("alice", "10.0.0.1", "fp1", s.t0))

	// Remaining itself must not start a cooldown
	d := s.limiter.CheckAndReserve("alice", "10.0.0.1", "fp1", s.t0)
	s.True(d.Allowed)

	s.Equal(30*time.Second, s.limiter.Remaining("alice", "10.0.0.1", "fp1", s.t0.Add(30*time.Second)))
}
