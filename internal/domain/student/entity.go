// Package student contains the student identity model and the resolver
// that normalizes heterogeneous identifiers into one canonical identity.
//
// The platform's records reference students three different ways: the
// canonical UUID used by newer collections, the legacy numeric id kept
// from the previous system, and raw string keys (usually the email) found
// in imported data. Everything inside this service works with the
// canonical ID; the resolver is the single place where the other forms
// are translated.
package student

import (
	"time"
)

// Student is the read-only identity record for one learner. This core
// never mutates students; it only resolves and reads them.
type Student struct {
	// ID is the canonical record identifier (UUID).
	ID string

	// LegacyID is the numeric id from the previous system. Zero when the
	// student was created after the migration.
	LegacyID int64

	// Email is the contact address, also used as an opaque lookup key.
	Email string

	// FullName is the display name.
	FullName string

	// Grade is the school grade label (e.g., "K", "1", "2").
	Grade string

	CreatedAt time.Time
	UpdatedAt time.Time
}
