package domain

import "time"

// NotificationKind enumerates delivery-worthy event categories.
type NotificationKind string

const (
	NotificationJobAssigned NotificationKind = "JOB_ASSIGNED"
	NotificationJobReminder NotificationKind = "JOB_REMINDER"
	NotificationSystem      NotificationKind = "SYSTEM"
	NotificationAuditReady  NotificationKind = "AUDIT_READY"
)

// ValidNotificationKind reports whether k is a known kind.
func ValidNotificationKind(k NotificationKind) bool {
	switch k {
	case NotificationJobAssigned, NotificationJobReminder, NotificationSystem, NotificationAuditReady:
		return true
	}
	return false
}

// NotificationEvent is one delivery-worthy event for a staff member. Events
// are append-only; the only mutation ever applied is the read flip.
type NotificationEvent struct {
	EventID           string
	TargetIdentityKey string
	Kind              NotificationKind
	Title             string
	Body              string
	Read              bool
	CreatedAt         time.Time
}
