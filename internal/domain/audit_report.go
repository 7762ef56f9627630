package domain

import (
	"fmt"
	"time"
)

// AuditReportStatus enumerates the per-period report state machine.
type AuditReportStatus string

const (
	AuditStatusPending    AuditReportStatus = "PENDING"
	AuditStatusGenerating AuditReportStatus = "GENERATING"
	AuditStatusGenerated  AuditReportStatus = "GENERATED"
	AuditStatusFailed     AuditReportStatus = "FAILED"
)

// AuditReport is one audit artifact for one staff member for one period.
// The (CanonicalIdentityKey, PeriodID) pair is unique; GENERATED is terminal.
type AuditReport struct {
	CanonicalIdentityKey string
	PeriodID             string
	Status               AuditReportStatus
	Attempts             int
	Content              *string
	GeneratedAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// PeriodID returns the ISO-week period identifier for t, e.g. "2025-W01".
func PeriodID(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
