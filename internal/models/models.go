package models

// This file provides a central import point for all models
// and helper functions for database operations

import (
	"crypto/rand"
	"encoding/hex"
)

// AllModels returns all model types for GORM operations
// Note: Migrations are handled by golang-migrate, not GORM AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Session{},
		&LoginChallenge{},
		&PasswordHistory{},
		&PasswordResetRequest{},
		&AuditLog{},
	}
}

// GenerateSecureToken generates a secure random token of the given hex
// length. Used for session client tokens and reset request ids. A failed
// read from the system randomness source is unrecoverable; returning a
// degraded token would break the unguessability every caller relies on,
// so it panics instead.
func GenerateSecureToken(length int) string {
	bytes := make([]byte, length/2)
	if _, err := rand.Read(bytes); err != nil {
		panic("models: system randomness source unavailable: " + err.Error())
	}
	return hex.EncodeToString(bytes)
}
