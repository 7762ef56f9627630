package dto

import (
	"time"

	"github.com/crewline/staff-sync-service/internal/domain"
)

// NotificationView is the external notification representation.
type NotificationView struct {
	EventID   string    `json:"event_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NewNotificationView maps a domain event.
func NewNotificationView(event *domain.NotificationEvent) NotificationView {
	return NotificationView{
		EventID:   event.EventID,
		Kind:      string(event.Kind),
		Title:     event.Title,
		Body:      event.Body,
		Read:      event.Read,
		CreatedAt: event.CreatedAt,
	}
}

// NotificationViews maps a slice of events preserving stream order.
func NotificationViews(events []domain.NotificationEvent) []NotificationView {
	items := make([]NotificationView, 0, len(events))
	for i := range events {
		items = append(items, NewNotificationView(&events[i]))
	}
	return items
}

// AuditReportView is the external audit report representation.
type AuditReportView struct {
	PeriodID    string     `json:"period_id"`
	Status      string     `json:"status"`
	Content     string     `json:"content,omitempty"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
}

// NewAuditReportView maps a domain report.
func NewAuditReportView(report *domain.AuditReport) AuditReportView {
	view := AuditReportView{
		PeriodID:    report.PeriodID,
		Status:      string(report.Status),
		GeneratedAt: report.GeneratedAt,
	}
	if report.Content != nil {
		view.Content = *report.Content
	}
	return view
}
