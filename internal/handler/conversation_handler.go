package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/messenger-go-api/internal/dto"
	"github.com/noah-isme/messenger-go-api/internal/repository"
	"github.com/noah-isme/messenger-go-api/internal/service"
	"github.com/noah-isme/messenger-go-api/internal/store"
	"github.com/noah-isme/messenger-go-api/internal/utils"
)

// ConversationHandler wires the conversation list, thread and send endpoints.
type ConversationHandler struct {
	service service.MessengerService
	logger  zerolog.Logger
}

// NewConversationHandler creates a conversation handler instance.
func NewConversationHandler(service service.MessengerService, logger zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: service,
		logger:  logger.With().Str("component", "conversation_handler").Logger(),
	}
}

// Register binds conversation routes under the provided router group.
func (h *ConversationHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/messages", h.send)
	router.Get("/exists", h.exists)
	router.Get("/:conversationID/messages", h.thread)
	router.Delete("/:conversationID", h.delete)
}

func (h *ConversationHandler) list(c *fiber.Ctx) error {
	sender := identityFromContext(c)

	conversations, err := h.service.ListConversations(requestContext(c), sender.Email)
	if err != nil {
		if errors.Is(err, store.ErrFetchFailed) {
			// a user with no conversations yet has no list node at all
			return utils.SendSuccess(c, "conversations", []dto.ConversationResponse{})
		}
		h.logger.Error().Err(err).Msg("failed to list conversations")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch conversations")
	}

	return utils.SendSuccess(c, "conversations", conversations)
}

func (h *ConversationHandler) send(c *fiber.Ctx) error {
	sender := identityFromContext(c)

	var payload dto.SendMessageRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Send(requestContext(c), sender, payload)
	if err != nil {
		var validationErrs validator.ValidationErrors
		switch {
		case errors.As(err, &validationErrs):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrEmptyMessage):
			return utils.SendError(c, fiber.StatusBadRequest, "message content empty")
		case errors.Is(err, repository.ErrUserNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "sender account not found")
		case errors.Is(err, repository.ErrThreadNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "conversation not found")
		default:
			h.logger.Error().Err(err).Msg("failed to send message")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to send message")
		}
	}

	status := fiber.StatusOK
	if response.Created {
		status = fiber.StatusCreated
	}

	return utils.SendSuccessWithStatus(c, status, "message sent", response)
}

func (h *ConversationHandler) exists(c *fiber.Ctx) error {
	sender := identityFromContext(c)

	otherEmail := c.Query("other_user_email")
	if otherEmail == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "other_user_email required")
	}

	conversationID, err := h.service.ConversationExists(requestContext(c), sender.Email, otherEmail)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "conversation not found")
		}
		h.logger.Error().Err(err).Msg("conversation lookup failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to check conversation")
	}

	return utils.SendSuccess(c, "conversation exists", dto.ConversationExistsResponse{ConversationID: conversationID})
}

func (h *ConversationHandler) thread(c *fiber.Ctx) error {
	conversationID := c.Params("conversationID")
	if conversationID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "conversation id required")
	}

	messages, err := h.service.Thread(requestContext(c), conversationID)
	if err != nil {
		if errors.Is(err, store.ErrFetchFailed) {
			return utils.SendError(c, fiber.StatusNotFound, "conversation not found")
		}
		h.logger.Error().Err(err).Msg("failed to fetch thread")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch messages")
	}

	return utils.SendSuccess(c, "messages", messages)
}

func (h *ConversationHandler) delete(c *fiber.Ctx) error {
	sender := identityFromContext(c)

	conversationID := c.Params("conversationID")
	if conversationID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "conversation id required")
	}

	found, err := h.service.DeleteConversation(requestContext(c), sender.Email, conversationID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to delete conversation")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete conversation")
	}

	return utils.SendSuccess(c, "conversation deleted", dto.DeleteConversationResponse{Found: found})
}
