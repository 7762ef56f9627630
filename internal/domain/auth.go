package domain

import "time"

// SubjectType identifies token subjects. Only staff authenticate against this
// service; the constant keeps claims explicit on the wire.
type SubjectType string

const (
	SubjectTypeStaff SubjectType = "STAFF"
)

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	Subject   SubjectType
	Role      *StaffRole
	ExpiresAt time.Time
	IssuedAt  time.Time
}
