package middleware

import (
	"github.com/engtoolshub/engtools-backend/internal/dto"
	"github.com/engtoolshub/engtools-backend/internal/models"
	"github.com/engtoolshub/engtools-backend/internal/session"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CurrentUser runs after JWTProtected. It enforces the single-active-session
// rule via the sid claim and loads the user's current row, so every
// entitlement check downstream sees fresh role and expiry state rather than
// whatever was true when the token was minted.
func CurrentUser(db *gorm.DB, sessions *session.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := session.UserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		sid, err := session.SessionID(c)
		if err != nil || !sessions.Valid(userID, sid) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Session expired: your account was signed in elsewhere",
			})
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		c.Locals("currentUser", &user)
		return c.Next()
	}
}

// User returns the row loaded by CurrentUser.
func User(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("currentUser").(*models.User)
	return user
}
