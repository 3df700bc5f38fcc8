package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-portal/internal/access"
	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

// RequireScreen rejects callers whose role may not perform action on screen.
func RequireScreen(screen access.Screen, action access.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := CallerFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if err := access.Authorize(caller.Authorization, screen, action); err != nil {
			return err
		}
		return c.Next()
	}
}
