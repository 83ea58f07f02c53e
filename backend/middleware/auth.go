package middleware

import (
	"aptiportal/backend/config"
	"aptiportal/backend/models"
	"aptiportal/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AuthMiddleware verifies the bearer token and stashes the user ID in
// the request locals.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _, err := utils.ExtractUserFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		c.Locals("userID", userID)
		return c.Next()
	}
}

// RequireRole re-reads the user row so a stale token can't keep an old
// role alive, then stores the user for the handler.
func RequireRole(db *gorm.DB, cfg *config.Config, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _, err := utils.ExtractUserFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			return utils.Unauthorized(c, "User not found")
		}
		if user.Role != role {
			return utils.Forbidden(c, "Forbidden")
		}

		c.Locals("userID", user.ID)
		c.Locals("user", user)
		return c.Next()
	}
}

// CurrentUser pulls the user loaded by RequireRole out of the locals.
func CurrentUser(c *fiber.Ctx) (models.User, bool) {
	user, ok := c.Locals("user").(models.User)
	return user, ok
}
