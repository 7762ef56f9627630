package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/crewline/staff-sync-service/internal/api/dto"
	"github.com/crewline/staff-sync-service/internal/auth"
	"github.com/crewline/staff-sync-service/internal/delivery"
	"github.com/crewline/staff-sync-service/internal/domain"
	"github.com/crewline/staff-sync-service/internal/repository"
	"github.com/crewline/staff-sync-service/internal/service"
	"github.com/crewline/staff-sync-service/internal/syncer"
	apperrors "github.com/crewline/staff-sync-service/pkg/util"
)

// StaffHandler serves the staff-facing data endpoints. Every read first
// resolves the caller to the canonical identity key and queries on that axis
// only.
type StaffHandler struct {
	assignments *service.AssignmentService
	store       *syncer.Synchronizer
	resolver    service.IdentityResolver
	audits      repository.AuditReportRepository
	pipeline    *delivery.Pipeline
}

// NewStaffHandler constructs handler.
func NewStaffHandler(assignments *service.AssignmentService, store *syncer.Synchronizer, resolver service.IdentityResolver, audits repository.AuditReportRepository, pipeline *delivery.Pipeline) *StaffHandler {
	return &StaffHandler{assignments: assignments, store: store, resolver: resolver, audits: audits, pipeline: pipeline}
}

// ListJobs GET /staff/jobs.
func (h *StaffHandler) ListJobs(c *fiber.Ctx) error {
	key, err := h.callerKey(c)
	if err != nil {
		return err
	}
	jobs, err := h.store.QueryJobsFor(c.UserContext(), key)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.JobViews(jobs)})
}

// UpdateJobStatus POST /staff/jobs/:id/status.
func (h *StaffHandler) UpdateJobStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateJobStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	job, err := h.assignments.UpdateJobStatus(c.UserContext(),
		principal.Staff.RecordID, principal.Role,
		c.Params("id"), domain.JobStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewJobView(job)})
}

// ListNotifications GET /staff/notifications.
//
// Query params since_at (RFC3339) and since_id form the stream cursor; both
// must be present to take effect.
func (h *StaffHandler) ListNotifications(c *fiber.Ctx) error {
	key, err := h.callerKey(c)
	if err != nil {
		return err
	}

	var cursor *repository.NotificationCursor
	if sinceAt := c.Query("since_at"); sinceAt != "" {
		at, err := time.Parse(time.RFC3339Nano, sinceAt)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid since_at")
		}
		cursor = &repository.NotificationCursor{CreatedAt: at, EventID: c.Query("since_id")}
	}

	events, err := h.store.QueryNotificationsFor(c.UserContext(), key, cursor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NotificationViews(events)})
}

// MarkNotificationRead POST /staff/notifications/:id/read.
func (h *StaffHandler) MarkNotificationRead(c *fiber.Ctx) error {
	key, err := h.callerKey(c)
	if err != nil {
		return err
	}
	if err := h.store.MarkNotificationRead(c.UserContext(), key, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"event_id": c.Params("id"), "read": true}})
}

// Overview GET /staff/overview.
//
// Returns jobs and notifications in one response. On partial availability the
// fetched collections are still rendered along with a non-blocking warning.
func (h *StaffHandler) Overview(c *fiber.Ctx) error {
	key, err := h.callerKey(c)
	if err != nil {
		return err
	}

	view, err := h.store.FetchStaffView(c.UserContext(), key)
	if err != nil {
		var partial *apperrors.PartialAvailabilityError
		if !errors.As(err, &partial) {
			return err
		}
		return c.JSON(fiber.Map{
			"data": fiber.Map{
				"jobs":          dto.JobViews(view.Jobs),
				"notifications": dto.NotificationViews(view.Notifications),
			},
			"warning": partial.ToDomainError().Details,
		})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"jobs":          dto.JobViews(view.Jobs),
		"notifications": dto.NotificationViews(view.Notifications),
	}})
}

// ListAuditReports GET /staff/audits.
func (h *StaffHandler) ListAuditReports(c *fiber.Ctx) error {
	key, err := h.callerKey(c)
	if err != nil {
		return err
	}
	reports, err := h.audits.ListByIdentityKey(c.UserContext(), key)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.AuditReportView, 0, len(reports))
	for i := range reports {
		items = append(items, dto.NewAuditReportView(&reports[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// StreamNotifications GET /staff/notifications/stream. Server-sent events:
// one live subscription per connection, torn down when the client goes away.
func (h *StaffHandler) StreamNotifications(c *fiber.Ctx) error {
	key, err := h.callerKey(c)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		done := make(chan struct{})
		batches := make(chan []domain.NotificationEvent, 8)
		failures := make(chan error, 1)

		unsubscribe, err := h.pipeline.Subscribe(key,
			func(events []domain.NotificationEvent) {
				select {
				case batches <- events:
				case <-done:
				}
			},
			func(err error) {
				select {
				case failures <- err:
				default:
				}
			},
		)
		if err != nil {
			return
		}
		defer func() {
			close(done)
			unsubscribe()
		}()

		// heartbeats surface client disconnects on otherwise idle streams
		heartbeat := time.NewTicker(15 * time.Second)
		defer heartbeat.Stop()

		for {
			select {
			case <-heartbeat.C:
				fmt.Fprint(w, ": ping\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			case events := <-batches:
				for i := range events {
					payload, err := json.Marshal(dto.NewNotificationView(&events[i]))
					if err != nil {
						continue
					}
					fmt.Fprintf(w, "id: %s\nevent: notification\ndata: %s\n\n", events[i].EventID, payload)
				}
				if err := w.Flush(); err != nil {
					return
				}
			case err := <-failures:
				fmt.Fprintf(w, "event: error\ndata: %q\n\n", err.Error())
				_ = w.Flush()
				return
			}
		}
	}))
	return nil
}

func (h *StaffHandler) callerKey(c *fiber.Ctx) (string, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return "", apperrors.NewUnauthorized("authentication required")
	}
	return h.resolver.Resolve(c.UserContext(), principal.Staff.RecordID)
}
