package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/messenger-go-api/internal/config"
	"github.com/noah-isme/messenger-go-api/internal/handler"
	"github.com/noah-isme/messenger-go-api/internal/middleware"
	"github.com/noah-isme/messenger-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AccountHandler      *handler.AccountHandler
	ConversationHandler *handler.ConversationHandler
	MediaHandler        *handler.MediaHandler
	LiveHandler         *handler.LiveHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Accounts: registration is public, directory and pictures need identity
	if deps.AccountHandler != nil {
		accounts := app.Group("/api/v1/accounts")
		deps.AccountHandler.Register(accounts)

		protected := app.Group("/api/v1/accounts", jwtMiddleware)
		deps.AccountHandler.RegisterProtected(protected)
	}

	// Conversations and message threads
	if deps.ConversationHandler != nil {
		conversations := app.Group("/api/v1/conversations", jwtMiddleware,
			middleware.RateLimit("conversations", 120, time.Minute))
		deps.ConversationHandler.Register(conversations)
	}

	// Media uploads for photo and video messages
	if deps.MediaHandler != nil {
		media := app.Group("/api/v1/media", jwtMiddleware,
			middleware.RateLimit("media", 30, time.Minute))
		deps.MediaHandler.Register(media)
	}

	// Live feeds over websocket
	if deps.LiveHandler != nil {
		live := app.Group("/ws/v1", jwtMiddleware)
		deps.LiveHandler.Register(live)
	}
}
