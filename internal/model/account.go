package model

// Account is a registered user. The password field holds whatever the
// configured credential verifier produced at registration time (plaintext
// in the default scheme), so it round-trips through snapshots unchanged.
type Account struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Fingerprint string `json:"fingerprint,omitempty"`

	// LastWriteMs is the unix-millisecond timestamp of the account's most
	// recent accepted pixel write; 0 means the account has never written.
	// Persisted with the account, unlike the address/fingerprint ledgers.
	LastWriteMs int64 `json:"lastPixelTime"`
}

// ChatEntry is a single chat message attributed to a user.
type ChatEntry struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}
