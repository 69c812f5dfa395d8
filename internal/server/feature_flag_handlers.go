package server

import (
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// FlagRequired hides a route while the named feature flag is off for the
// caller. Gated surfaces 404 rather than 403 so they stay invisible.
func (s *Server) FlagRequired(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := s.optionalUserID(c)
		if s.featureFlags == nil || !s.featureFlags.Enabled(name, userID) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundMessageError("Not found"))
		}
		return c.Next()
	}
}

// GetFeatureFlags returns configured feature flags and evaluated state for current user.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID, _ := s.optionalUserID(c)

	if s.featureFlags == nil {
		return c.JSON(fiber.Map{
			"raw":       map[string]string{},
			"evaluated": map[string]bool{},
		})
	}

	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}
