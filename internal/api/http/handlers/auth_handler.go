package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/crewline/staff-sync-service/internal/api/dto"
	"github.com/crewline/staff-sync-service/internal/service"
)

// AuthHandler handles staff authentication endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login POST /auth/staff/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.PIN)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.StaffLoginResponse{
		Token:       result.Token,
		ExpiresAt:   result.ExpiresAt,
		IdentityKey: result.IdentityKey,
		Staff:       dto.NewStaffView(result.Staff),
	}})
}
