package handler_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/messenger-go-api/internal/handler"
)

func TestLiveHandler_RejectsPlainHTTP(t *testing.T) {
	app := fiber.New()
	group := app.Group("/ws/v1", func(c *fiber.Ctx) error {
		c.Locals("user_email", "alice@example.com")
		return c.Next()
	})
	handler.NewLiveHandler(&mockMessengerService{}, zerolog.New(io.Discard)).Register(group)

	for _, path := range []string{"/ws/v1/conversations", "/ws/v1/threads/conversation_1"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode, path)
	}
}
