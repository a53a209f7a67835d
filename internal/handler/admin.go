package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/curconv/auth-service/internal/auth"
)

// AdminHandler exposes account administration endpoints. Routes using
// it must be wrapped in JWTAuth plus RequireRole("Admin").
type AdminHandler struct {
	Auth *auth.Service
}

func NewAdminHandler(svc *auth.Service) *AdminHandler {
	return &AdminHandler{Auth: svc}
}

// ActivateUser re-enables a deactivated account.
func (h *AdminHandler) ActivateUser(c echo.Context) error {
	return h.setActive(c, true)
}

// DeactivateUser disables an account. A deactivated user can no
// longer log in; refresh tokens it already holds stay subject to the
// normal rotation rules.
func (h *AdminHandler) DeactivateUser(c echo.Context) error {
	return h.setActive(c, false)
}

func (h *AdminHandler) setActive(c echo.Context, active bool) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.SetUserActive(ctx, userID, active); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
