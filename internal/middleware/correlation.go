package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const correlationHeader = "X-Correlation-ID"

type correlationCtxKey struct{}

// CorrelationID tags every request with a correlation identifier so log lines and
// downstream calls belonging to one request can be tied together. An id supplied by
// the client is honored; otherwise one is generated.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(correlationHeader))
		if id == "" {
			id = strings.TrimSpace(c.Get("X-Request-ID"))
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals("correlation_id", id)
		c.Set(correlationHeader, id)
		c.SetUserContext(context.WithValue(c.Context(), correlationCtxKey{}, id))

		return c.Next()
	}
}

// GetCorrelationID returns the identifier bound to the active request, or "".
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals("correlation_id").(string); ok {
		return id
	}
	return CorrelationIDFromContext(c.Context())
}

// CorrelationIDFromContext extracts the identifier from a plain context.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(correlationCtxKey{}).(string); ok {
		return id
	}
	return ""
}

// ContextWithCorrelation carries the identifier into contexts handed to services.
func ContextWithCorrelation(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationCtxKey{}, id)
}
