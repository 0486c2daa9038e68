package handler

import (
	"errors"
	"fmt"

	"go-printshop-ws/internal/model"
	"go-printshop-ws/internal/service"
	"go-printshop-ws/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type passwordChange struct {
	Email       string `json:"email" validate:"required,email"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,nefield=OldPassword"`
}

type tokenCheck struct {
	Token string `json:"token" validate:"required"`
}

// bindAuth parses and validates an auth request body, writing the 400 itself.
func bindAuth(c *fiber.Ctx, out interface{}) bool {
	if err := c.BodyParser(out); err != nil {
		_ = c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
		return false
	}
	if errs := validator.ValidateStruct(out); len(errs) > 0 {
		_ = c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("field '%s' failed on '%s'", errs[0].FailedField, errs[0].Tag),
		})
		return false
	}
	return true
}

// Login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req credentials
	if !bindAuth(c, &req) {
		return nil
	}

	session, err := h.authService.Login(req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUserInactive):
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return c.Status(500).JSON(fiber.Map{"error": "Login failed"})
	}
	return c.JSON(session)
}

// ResetPassword changes the password and signs out every other session.
// POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req passwordChange
	if !bindAuth(c, &req) {
		return nil
	}

	err := h.authService.ResetPassword(req.Email, req.OldPassword, req.NewPassword)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrWrongPassword):
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return c.Status(500).JSON(fiber.Map{"error": "Password change failed"})
	}
	return c.JSON(fiber.Map{"message": "Password updated, please log in again"})
}

// ValidateToken
// POST /api/v1/auth/validate-token
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	var req tokenCheck
	if !bindAuth(c, &req) {
		return nil
	}

	user, err := h.authService.ValidateToken(req.Token)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"valid": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"valid": true, "user": user.ToResponse()})
}

// Me returns the operator behind the bearer token.
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(*model.User)
	if !ok {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}
	return c.JSON(fiber.Map{"user": user.ToResponse()})
}
