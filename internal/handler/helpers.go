package handler

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/messenger-go-api/internal/middleware"
	"github.com/noah-isme/messenger-go-api/internal/service"
)

func identityFromContext(c *fiber.Ctx) service.Identity {
	identity := service.Identity{}
	if v := c.Locals("user_email"); v != nil {
		if email, ok := v.(string); ok {
			identity.Email = strings.TrimSpace(email)
		}
	}
	if v := c.Locals("user_name"); v != nil {
		if name, ok := v.(string); ok {
			identity.Name = strings.TrimSpace(name)
		}
	}
	return identity
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}
