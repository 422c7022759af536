package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clientcare/support-portal/internal/api/dto"
	"github.com/clientcare/support-portal/internal/service"
	apperrors "github.com/clientcare/support-portal/pkg/util"
)

// AuthHandler exposes the phone-login endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// RequestCode handles POST /auth/request-code.
func (h *AuthHandler) RequestCode(c *fiber.Ctx) error {
	var req dto.RequestCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.auth.RequestCode(c.UserContext(), req.Phone); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, token, expiresAt, err := h.auth.Login(c.UserContext(), req.Phone, req.Code)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": fiber.Map{
				"id":        user.ID,
				"phone":     user.Phone,
				"full_name": user.FullName,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: expiresAt},
		},
	})
}
