package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/crewline/staff-sync-service/internal/domain"
	"github.com/crewline/staff-sync-service/internal/events"
	apperrors "github.com/crewline/staff-sync-service/pkg/util"
)

// NotificationWriter is the slice of the synchronizer this service writes
// through.
type NotificationWriter interface {
	WriteNotification(ctx context.Context, event *domain.NotificationEvent) error
}

// NotificationService turns job domain events into stored notification
// events. This is the single delivery path: every job mutation that warrants
// a notification funnels through these handlers.
type NotificationService struct {
	dispatcher events.Dispatcher
	store      NotificationWriter
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, store NotificationWriter, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		store:      store,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventJobAssigned, n.handleJobAssigned)
	n.dispatcher.Subscribe(events.EventJobStatusChanged, n.handleJobStatusChanged)
	n.dispatcher.Subscribe(events.EventJobReminderDue, n.handleJobReminderDue)
}

func (n *NotificationService) handleJobAssigned(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.JobAssignedPayload)
	return n.write(ctx, event, domain.NotificationJobAssigned,
		"New job assigned",
		fmt.Sprintf("You have been assigned: %s", payload.Title))
}

func (n *NotificationService) handleJobStatusChanged(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.JobStatusChangedPayload)
	return n.write(ctx, event, domain.NotificationSystem,
		"Job updated",
		fmt.Sprintf("Job status changed from %s to %s", payload.OldStatus, payload.NewStatus))
}

func (n *NotificationService) handleJobReminderDue(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.JobReminderDuePayload)
	return n.write(ctx, event, domain.NotificationJobReminder,
		"Job reminder",
		fmt.Sprintf("Reminder: %s", payload.Title))
}

func (n *NotificationService) write(ctx context.Context, event events.Event, kind domain.NotificationKind, title, body string) error {
	// the event id seeds the notification id, so replayed events stay no-ops
	stored := &domain.NotificationEvent{
		EventID:           fmt.Sprintf("%s-%s", event.Type, event.ID),
		TargetIdentityKey: event.IdentityKey,
		Kind:              kind,
		Title:             title,
		Body:              body,
	}
	if err := n.store.WriteNotification(ctx, stored); err != nil {
		if apperrors.IsDuplicateEvent(err) {
			return nil
		}
		n.logger.Error("notification write failed",
			zap.String("event_type", string(event.Type)),
			zap.String("identity_key", event.IdentityKey),
			zap.Error(err))
		return err
	}
	n.logger.Debug("notification stored",
		zap.String("event_type", string(event.Type)),
		zap.String("identity_key", event.IdentityKey))
	return nil
}
