package domain

import "time"

// StaffRole enumerates staff job roles.
type StaffRole string

const (
	StaffRoleCleaner     StaffRole = "CLEANER"
	StaffRoleMaintenance StaffRole = "MAINTENANCE"
	StaffRoleAdmin       StaffRole = "ADMIN"
)

// StaffRecord models one employee or contractor.
//
// CanonicalIdentityKey is the single backend-recognized identifier used to key
// jobs, notifications and audits for this person. It may be nil until the
// first resolution backfills it. At most one active record carries a given key.
type StaffRecord struct {
	RecordID             string
	CanonicalIdentityKey *string
	Name                 string
	Email                string
	PINHash              string
	Role                 StaffRole
	Active               bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// HasCanonicalKey reports whether the record has been resolved before.
func (s *StaffRecord) HasCanonicalKey() bool {
	return s.CanonicalIdentityKey != nil && *s.CanonicalIdentityKey != ""
}
