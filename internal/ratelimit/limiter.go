package ratelimit

import (
	"sync"
	"time"
)

// DefaultWindow is the minimum interval between accepted writes for any
// single account, address, or fingerprint.
const DefaultWindow = 60 * time.Second

// LastWriteStore provides access to per-account last-write timestamps.
// Implemented by the accounts directory; the account timestamp rides the
// persisted snapshot while the limiter's own ledgers do not.
type LastWriteStore interface {
	LastWrite(username string) int64
	SetLastWrite(username string, ms int64)
}

// Decision is the outcome of a rate-limit check
type Decision struct {
	Allowed bool
	Wait    time.Duration
}

// Limiter gates pixel writes on three independent keys: the account, the
// network address, and the client fingerprint. Each key closes a separate
// evasion vector (new account, new address, same browser).
//
// The address and fingerprint ledgers are process-local and reset on
// restart; only the account timestamp survives via the snapshot.
type Limiter struct {
	mu            sync.Mutex
	window        time.Duration
	accounts      LastWriteStore
	byAddress     map[string]int64
	byFingerprint map[string]int64
}

// New creates a limiter over the given account store. A zero window
// defaults to DefaultWindow.
func New(accounts LastWriteStore, window time.Duration) *Limiter {
	if window == 0 {
		window = DefaultWindow
	}
	return &Limiter{
		window:        window,
		accounts:      accounts,
		byAddress:     make(map[string]int64),
		byFingerprint: make(map[string]int64),
	}
}

// CheckAndReserve accepts or rejects a write at the given instant. On
// acceptance all three ledgers are stamped to now in the same critical
// section, so concurrent writes for the same identity cannot both pass.
// Empty address or fingerprint keys are not tracked.
func (l *Limiter) CheckAndReserve(username, address, fingerprint string, now time.Time) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	nowMs := now.UnixMilli()
	if wait := l.remainingLocked(username, address, fingerprint, nowMs); wait > 0 {
		return Decision{Allowed: false, Wait: wait}
	}

	l.accounts.SetLastWrite(username, nowMs)
	if address != "" {
		l.byAddress[address] = nowMs
	}
	if fingerprint != "" {
		l.byFingerprint[fingerprint] = nowMs
	}
	return Decision{Allowed: true}
}

// Remaining reports how long until a write would be accepted, without
// reserving anything. Zero means a write is currently allowed.
func (l *Limiter) Remaining(username, address, fingerprint string, now time.Time) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remainingLocked(username, address, fingerprint, now.UnixMilli())
}

func (l *Limiter) remainingLocked(username, address, fingerprint string, nowMs int64) time.Duration {
	windowMs := l.window.Milliseconds()

	// Missing ledger entries default to 0, which always permits a first write.
	end := l.accounts.LastWrite(username) + windowMs
	if address != "" {
		if e := l.byAddress[address] + windowMs; e > end {
			end = e
		}
	}
	if fingerprint != "" {
		if e := l.byFingerprint[fingerprint] + windowMs; e > end {
			end = e
		}
	}

	if end <= nowMs {
		return 0
	}
	return time.Duration(end-nowMs) * time.Millisecond
}
