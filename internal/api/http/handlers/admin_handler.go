package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/crewline/staff-sync-service/internal/api/dto"
	"github.com/crewline/staff-sync-service/internal/domain"
	"github.com/crewline/staff-sync-service/internal/scheduler"
	"github.com/crewline/staff-sync-service/internal/service"
)

// AdminHandler serves dispatcher/operator endpoints: staff onboarding and
// lifecycle, job assignment, and the manual audit trigger.
type AdminHandler struct {
	staff       *service.StaffService
	assignments *service.AssignmentService
	audits      *scheduler.Scheduler
	logger      *zap.Logger
}

// NewAdminHandler constructs handler.
func NewAdminHandler(staff *service.StaffService, assignments *service.AssignmentService, audits *scheduler.Scheduler, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{staff: staff, assignments: assignments, audits: audits, logger: logger}
}

// CreateStaff POST /admin/staff.
func (h *AdminHandler) CreateStaff(c *fiber.Ctx) error {
	var req dto.CreateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	record, err := h.staff.CreateStaff(c.UserContext(), service.CreateStaffInput{
		Name:  req.Name,
		Email: req.Email,
		PIN:   req.PIN,
		Role:  domain.StaffRole(req.Role),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewStaffView(record)})
}

// ListStaff GET /admin/staff.
func (h *AdminHandler) ListStaff(c *fiber.Ctx) error {
	records, err := h.staff.ListActiveStaff(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.StaffView, 0, len(records))
	for i := range records {
		items = append(items, dto.NewStaffView(&records[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeactivateStaff POST /admin/staff/:id/deactivate.
func (h *AdminHandler) DeactivateStaff(c *fiber.Ctx) error {
	if err := h.staff.DeactivateStaff(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"record_id": c.Params("id"), "active": false}})
}

// AssignJob POST /admin/jobs.
func (h *AdminHandler) AssignJob(c *fiber.Ctx) error {
	var req dto.AssignJobRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	job, err := h.assignments.AssignJob(c.UserContext(), service.AssignJobInput{
		StaffRef: req.StaffRef,
		Title:    req.Title,
		Location: req.Location,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewJobView(job)})
}

// RunAuditPass POST /admin/audits/run. Kicks the weekly pass off outside its
// schedule; the pass itself is idempotent per period.
func (h *AdminHandler) RunAuditPass(c *fiber.Ctx) error {
	go func() {
		result, err := h.audits.RunPass(context.Background())
		if err != nil {
			h.logger.Error("manual audit pass failed", zap.Error(err))
			return
		}
		h.logger.Info("manual audit pass finished",
			zap.String("period", result.PeriodID),
			zap.Int("generated", result.Generated),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed),
			zap.Int("exhausted", result.Exhausted))
	}()
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"status": "started"}})
}
