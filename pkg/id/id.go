// Package id mints identifiers for records, push sessions and gateway transactions.
package id

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// NewID32 returns a random v4 UUID as 32 lowercase hex characters.
func NewID32() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// NewSessionID identifies a single push connection; it is never persisted.
func NewSessionID() string { return "ws_" + uuid.NewString() }

// NewTransactionID names a simulated gateway transaction.
func NewTransactionID() string { return "txn_" + NewID32() }
