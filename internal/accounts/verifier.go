package accounts

import "golang.org/x/crypto/bcrypt"

// CredentialVerifier abstracts how passwords are stored and checked, so a
// hashing scheme can replace plaintext storage without touching the
// directory.
type CredentialVerifier interface {
	// Hash transforms a password into its stored form.
	Hash(password string) (string, error)
	// Verify reports whether a presented password matches the stored form.
	Verify(stored, presented string) bool
}

// PlaintextVerifier stores passwords verbatim, which keeps snapshots
// round-trippable byte for byte.
type PlaintextVerifier struct{}

func (PlaintextVerifier) Hash(password string) (string, error) {
	return password, nil
}

func (PlaintextVerifier) Verify(stored, presented string) bool {
	return stored == presented
}

// BcryptVerifier stores bcrypt hashes. Drop-in replacement for
// PlaintextVerifier; existing plaintext entries will simply fail to verify.
type BcryptVerifier struct {
	Cost int
}

func (v BcryptVerifier) Hash(password string) (string, error) {
	cost := v.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (v BcryptVerifier) Verify(stored, presented string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(presented)) == nil
}
