package accounts

import (
	"log/slog"
	"sync"

	"github.com/mkov/pixelwall/internal/model"
)

// Directory owns the registered accounts: usernames, credentials, optional
// fingerprints, and last-write timestamps. Accounts are never deleted.
type Directory struct {
	mu            sync.RWMutex
	accounts      map[string]*model.Account
	byFingerprint map[string]string // fingerprint -> username
	verifier      CredentialVerifier
	logger        *slog.Logger
}

// New creates an empty directory using the given credential verifier
func New(verifier CredentialVerifier, logger *slog.Logger) *Directory {
	return &Directory{
		accounts:      make(map[string]*model.Account),
		byFingerprint: make(map[string]string),
		verifier:      verifier,
		logger:        logger.With(slog.String("component", "accounts")),
	}
}

// Register creates a new account. It fails with ErrDuplicateFingerprint if
// another account already carries the fingerprint, and ErrDuplicateUsername
// if the username is taken. A successful registration starts with a
// last-write timestamp of 0 (never written).
func (d *Directory) Register(username, password, fingerprint string) (*model.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if fingerprint != "" {
		if _, ok := d.byFingerprint[fingerprint]; ok {
			return nil, model.ErrDuplicateFingerprint
		}
	}
	if _, ok := d.accounts[username]; ok {
		return nil, model.ErrDuplicateUsername
	}

	stored, err := d.verifier.Hash(password)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		Username:    username,
		Password:    stored,
		Fingerprint: fingerprint,
	}
	d.accounts[username] = account
	if fingerprint != "" {
		d.byFingerprint[fingerprint] = username
	}

	d.logger.Info("account registered", slog.String("username", username))
	return account, nil
}

// Authenticate checks a username/password pair. A fingerprint that differs
// from the one stored at registration is observed but not rejected.
func (d *Directory) Authenticate(username, password, fingerprint string) (*model.Account, error) {
	d.mu.RLock()
	account, ok := d.accounts[username]
	d.mu.RUnlock()

	if !ok || !d.verifier.Verify(account.Password, password) {
		return nil, model.ErrInvalidCredentials
	}

	if fingerprint != "" && account.Fingerprint != "" && fingerprint != account.Fingerprint {
		d.logger.Debug("fingerprint mismatch on login",
			slog.String("username", username))
	}

	return account, nil
}

// LastWrite returns the account's last accepted write in unix milliseconds,
// or 0 for unknown accounts and accounts that never wrote.
func (d *Directory) LastWrite(username string) int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if account, ok := d.accounts[username]; ok {
		return account.LastWriteMs
	}
	return 0
}

// SetLastWrite records an accepted write for the account
func (d *Directory) SetLastWrite(username string, ms int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if account, ok := d.accounts[username]; ok {
		account.LastWriteMs = ms
	}
}

// Snapshot returns a deep copy of all accounts keyed by username
func (d *Directory) Snapshot() map[string]*model.Account {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]*model.Account, len(d.accounts))
	for username, account := range d.accounts {
		copied := *account
		out[username] = &copied
	}
	return out
}

// Restore replaces the directory contents from a snapshot
func (d *Directory) Restore(users map[string]*model.Account) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.accounts = make(map[string]*model.Account, len(users))
	d.byFingerprint = make(map[string]string)
	for username, account := range users {
		copied := *account
		copied.Username = username
		d.accounts[username] = &copied
		if copied.Fingerprint != "" {
			d.byFingerprint[copied.Fingerprint] = username
		}
	}
}
