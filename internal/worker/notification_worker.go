package worker

import (
	"github.com/crewline/staff-sync-service/internal/service"
)

// StartNotificationWorker registers the job event handlers that fan out
// notification writes.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
