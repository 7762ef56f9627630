package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/crewline/staff-sync-service/internal/api/http/handlers"
	"github.com/crewline/staff-sync-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Staff          *handlers.StaffHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/staff/login", cfg.Auth.Login)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle)
	staff.Get("/jobs", cfg.Staff.ListJobs)
	staff.Post("/jobs/:id/status", cfg.Staff.UpdateJobStatus)
	staff.Get("/notifications", cfg.Staff.ListNotifications)
	staff.Get("/notifications/stream", cfg.Staff.StreamNotifications)
	staff.Post("/notifications/:id/read", cfg.Staff.MarkNotificationRead)
	staff.Get("/overview", cfg.Staff.Overview)
	staff.Get("/audits", cfg.Staff.ListAuditReports)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Post("/staff", cfg.Admin.CreateStaff)
	admin.Get("/staff", cfg.Admin.ListStaff)
	admin.Post("/staff/:id/deactivate", cfg.Admin.DeactivateStaff)
	admin.Post("/jobs", cfg.Admin.AssignJob)
	admin.Post("/audits/run", cfg.Admin.RunAuditPass)
}
