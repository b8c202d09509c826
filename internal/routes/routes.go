package routes

import (
	"time"

	"github.com/engtoolshub/engtools-backend/internal/config"
	"github.com/engtoolshub/engtools-backend/internal/handlers"
	"github.com/engtoolshub/engtools-backend/internal/middleware"
	"github.com/engtoolshub/engtools-backend/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	sessions *session.Registry,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	toolHandler *handlers.ToolHandler,
	courseHandler *handlers.CourseHandler,
	promoHandler *handlers.PromoHandler,
	webhookHandler *handlers.WebhookHandler,
	chatHandler *handlers.ChatHandler,
	notificationHandler *handlers.NotificationHandler,
	adminHandler *handlers.AdminHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Stripe webhook: authenticated by signature, not by JWT
	api.Post("/stripe/webhook", webhookHandler.HandleStripe)

	// Auth — public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/recover-password", authHandler.RecoverPassword)

	// Everything below requires a valid token, the newest session for the
	// user, and a freshly loaded user row.
	protected := api.Group("", middleware.JWTProtected(cfg), middleware.CurrentUser(db, sessions))

	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Delete("/auth/account", authHandler.DeleteAccount)

	protected.Get("/tools", toolHandler.ListTools)
	protected.Get("/tools/:id", toolHandler.GetTool)

	protected.Get("/courses", courseHandler.ListCourses)
	protected.Get("/courses/:id", courseHandler.GetCourse)
	protected.Get("/courses/:id/access", courseHandler.CheckAccess)

	protected.Post("/promocodes/use", promoHandler.UsePromo)

	protected.Post("/chat/threads", chatHandler.CreateThread)
	protected.Get("/chat/threads", chatHandler.ListThreads)
	protected.Get("/chat/threads/:id/messages", chatHandler.GetMessages)
	protected.Post("/chat/threads/:id/messages", chatHandler.PostMessage)

	protected.Get("/notifications", notificationHandler.List)
	protected.Get("/notifications/unread-count", notificationHandler.UnreadCount)
	protected.Post("/notifications/:id/read", notificationHandler.MarkRead)

	// Admin panel
	admin := protected.Group("/admin", middleware.AdminRequired(cfg))

	admin.Get("/users", adminHandler.ListUsers)
	admin.Post("/users/:id/grant", adminHandler.GrantDays)

	admin.Post("/force-expiration-check", adminHandler.ForceExpirationCheck)
	admin.Post("/check-expired-plans", adminHandler.CheckExpiredPlans)

	admin.Post("/tools", toolHandler.CreateTool)
	admin.Put("/tools/:id", toolHandler.UpdateTool)
	admin.Delete("/tools/:id", toolHandler.DeleteTool)

	admin.Post("/courses", courseHandler.CreateCourse)
	admin.Put("/courses/:id", courseHandler.UpdateCourse)
	admin.Delete("/courses/:id", courseHandler.DeleteCourse)

	admin.Post("/promocodes", adminHandler.CreatePromo)
	admin.Get("/promocodes", adminHandler.ListPromos)
	admin.Delete("/promocodes/:id", adminHandler.DeactivatePromo)
	admin.Get("/promocodes/:id/usages", adminHandler.PromoUsages)

	admin.Get("/chat/threads", chatHandler.ListAllThreads)
	admin.Post("/chat/threads/:id/close", chatHandler.CloseThread)

	admin.Post("/notifications", notificationHandler.Broadcast)
}
