package handler

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/messenger-go-api/internal/middleware"
	"github.com/noah-isme/messenger-go-api/internal/service"
)

// LiveHandler wires the websocket endpoints that stream conversation lists and
// threads as they change. These are the continuous reads clients subscribe to;
// one-shot history lives on the REST surface.
type LiveHandler struct {
	service service.MessengerService
	logger  zerolog.Logger
}

// NewLiveHandler creates a live feed handler instance.
func NewLiveHandler(service service.MessengerService, logger zerolog.Logger) *LiveHandler {
	return &LiveHandler{
		service: service,
		logger:  logger.With().Str("component", "live_handler").Logger(),
	}
}

// Register binds the websocket routes under the provided router group.
func (h *LiveHandler) Register(router fiber.Router) {
	router.Use(func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
			c.Locals("request_ctx", ctx)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/conversations", websocket.New(h.handleConversations))
	router.Get("/threads/:conversationID", websocket.New(h.handleThread))
}

func (h *LiveHandler) handleConversations(conn *websocket.Conn) {
	email := websocketEmail(conn)
	if email == "" {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusUnauthorized, "identity missing"))
		_ = conn.Close()
		return
	}

	ctx, cancel := connectionContext(conn)
	defer cancel()

	snapshots, err := h.service.StreamConversations(ctx, email)
	if err != nil {
		h.logger.Warn().Err(err).Str("email", email).Msg("failed to open conversation feed")
		_ = conn.Close()
		return
	}

	h.logger.Info().Str("email", email).Msg("conversation feed connected")
	h.pump(conn, cancel, func() (interface{}, bool) {
		snapshot, ok := <-snapshots
		return snapshot, ok
	})
	h.logger.Info().Str("email", email).Msg("conversation feed disconnected")
}

func (h *LiveHandler) handleThread(conn *websocket.Conn) {
	email := websocketEmail(conn)
	if email == "" {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusUnauthorized, "identity missing"))
		_ = conn.Close()
		return
	}

	conversationID := strings.TrimSpace(conn.Params("conversationID"))
	if conversationID == "" {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusBadRequest, "conversation id required"))
		_ = conn.Close()
		return
	}

	ctx, cancel := connectionContext(conn)
	defer cancel()

	snapshots, err := h.service.StreamThread(ctx, conversationID)
	if err != nil {
		h.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("failed to open thread feed")
		_ = conn.Close()
		return
	}

	h.logger.Info().Str("email", email).Str("conversation_id", conversationID).Msg("thread feed connected")
	h.pump(conn, cancel, func() (interface{}, bool) {
		snapshot, ok := <-snapshots
		return snapshot, ok
	})
	h.logger.Info().Str("email", email).Str("conversation_id", conversationID).Msg("thread feed disconnected")
}

// pump writes feed snapshots until either side closes. A reader goroutine drains the
// connection so client-initiated closes cancel the feed promptly.
func (h *LiveHandler) pump(conn *websocket.Conn, cancel context.CancelFunc, next func() (interface{}, bool)) {
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		_ = conn.Close()
	}()

	for {
		snapshot, ok := next()
		if !ok {
			return
		}
		if err := conn.WriteJSON(snapshot); err != nil {
			h.logger.Debug().Err(err).Msg("live feed write terminated")
			return
		}
	}
}

func connectionContext(conn *websocket.Conn) (context.Context, context.CancelFunc) {
	baseCtx, _ := conn.Locals("request_ctx").(context.Context)
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return context.WithCancel(baseCtx)
}

func websocketEmail(conn *websocket.Conn) string {
	if value := conn.Locals("user_email"); value != nil {
		if email, ok := value.(string); ok {
			return strings.TrimSpace(email)
		}
	}
	return ""
}
