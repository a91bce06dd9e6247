// Package models defines server-side data models persisted in the database.
package models

import "time"

// TransferState is the lifecycle state of a stored transfer. Transitions
// are monotonic: Live may become Consumed or Expired, and terminal states
// are sticky.
type TransferState string

const (
	// StateLive means the ciphertext object exists and may be served once.
	StateLive TransferState = "live"
	// StateConsumed means the transfer was downloaded; the object is gone.
	StateConsumed TransferState = "consumed"
	// StateExpired means the deadline passed before a download; the object
	// is gone.
	StateExpired TransferState = "expired"
)

// Valid reports whether s is one of the known states.
func (s TransferState) Valid() bool {
	switch s {
	case StateLive, StateConsumed, StateExpired:
		return true
	}
	return false
}

// Terminal reports whether s is a sticky end state.
func (s TransferState) Terminal() bool {
	return s == StateConsumed || s == StateExpired
}

// Transfer describes one sender-to-receiver file hand-off. The ciphertext
// itself lives in object storage under StorageKey; the record only carries
// metadata and the one-way credential verifier.
type Transfer struct {
	// ID is the opaque identifier forming the public download reference.
	ID string
	// OwnerID is the uploading principal. Used for listing only, never for
	// download access control.
	OwnerID string
	// StorageKey is the object-storage key of the sealed blob. It dangles
	// once State leaves StateLive.
	StorageKey string

	// DisplayName and Extension are cosmetic and echoed to the receiver.
	DisplayName string
	Extension   string

	// Verifier is the one-way passphrase digest presented back on download.
	Verifier []byte

	// Size is the ciphertext length in bytes.
	Size int64

	CreatedAt time.Time
	// ExpiresAt, when set, is the self-destruct deadline. Nil means the
	// transfer never expires on a timer.
	ExpiresAt *time.Time

	State TransferState
	// TerminalAt is set exactly when State leaves StateLive.
	TerminalAt *time.Time
}

// Overdue reports whether the transfer has a deadline that now has passed.
// The deadline instant itself counts as overdue, matching the sweeper's
// selection of records with expires_at <= now.
func (t *Transfer) Overdue(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}
