package model

import "errors"

// Common errors used across the application
var (
	// Account errors
	ErrDuplicateUsername    = errors.New("username already exists")
	ErrDuplicateFingerprint = errors.New("fingerprint already bound to an account")
	ErrInvalidCredentials   = errors.New("invalid username or password")

	// Persistence errors
	ErrSnapshotNotFound = errors.New("snapshot not found")
)
