package handler

import (
	"errors"
	"mime/multipart"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/messenger-go-api/internal/dto"
	"github.com/noah-isme/messenger-go-api/internal/repository"
	"github.com/noah-isme/messenger-go-api/internal/service"
	"github.com/noah-isme/messenger-go-api/internal/utils"
)

// AccountHandler wires registration, directory and profile picture endpoints.
type AccountHandler struct {
	service service.AccountService
	logger  zerolog.Logger
}

// NewAccountHandler creates an account handler instance.
func NewAccountHandler(service service.AccountService, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		service: service,
		logger:  logger.With().Str("component", "account_handler").Logger(),
	}
}

// Register binds the public registration route.
func (h *AccountHandler) Register(router fiber.Router) {
	router.Post("/register", h.register)
}

// RegisterProtected binds the routes that require an authenticated identity.
func (h *AccountHandler) RegisterProtected(router fiber.Router) {
	router.Get("/directory", h.directory)
	router.Put("/profile-picture", h.setProfilePicture)
	router.Get("/profile-picture", h.profilePictureURL)
}

func (h *AccountHandler) register(c *fiber.Ctx) error {
	var payload dto.RegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Register(requestContext(c), payload)
	if err != nil {
		var validationErrs validator.ValidationErrors
		switch {
		case errors.As(err, &validationErrs):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAccountExists):
			return utils.SendError(c, fiber.StatusConflict, "account already exists")
		default:
			h.logger.Error().Err(err).Msg("registration failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to register account")
		}
	}

	// An attached picture is uploaded after the account exists; a failed upload is
	// logged and the registration still succeeds.
	if file, err := c.FormFile("picture"); err == nil {
		if url, err := h.uploadRegistrationPicture(c, payload.Email, file); err != nil {
			h.logger.Warn().Err(err).Msg("registration picture upload failed")
		} else {
			response.ProfilePictureURL = url
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "account registered", response)
}

func (h *AccountHandler) uploadRegistrationPicture(c *fiber.Ctx, email string, file *multipart.FileHeader) (string, error) {
	handle, err := file.Open()
	if err != nil {
		return "", err
	}
	defer handle.Close()

	return h.service.SetProfilePicture(requestContext(c), email, handle)
}

func (h *AccountHandler) directory(c *fiber.Ctx) error {
	sender := identityFromContext(c)

	entries, err := h.service.Directory(requestContext(c), sender.Email)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list directory")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch users")
	}

	return utils.SendSuccess(c, "user directory", entries)
}

func (h *AccountHandler) setProfilePicture(c *fiber.Ctx) error {
	sender := identityFromContext(c)

	file, err := c.FormFile("picture")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "picture file required")
	}

	handle, err := file.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "unreadable picture file")
	}
	defer handle.Close()

	url, err := h.service.SetProfilePicture(requestContext(c), sender.Email, handle)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUploadTypeNotAllowed):
			return utils.SendError(c, fiber.StatusBadRequest, "picture must be an image")
		case errors.Is(err, repository.ErrUserNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "account not found")
		default:
			h.logger.Error().Err(err).Msg("profile picture upload failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to store picture")
		}
	}

	return utils.SendSuccess(c, "profile picture updated", dto.ProfilePictureResponse{URL: url})
}

func (h *AccountHandler) profilePictureURL(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		email = identityFromContext(c).Email
	}

	url, err := h.service.ProfilePictureURL(requestContext(c), email)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to resolve profile picture url")
		return utils.SendError(c, fiber.StatusNotFound, "profile picture unavailable")
	}

	return utils.SendSuccess(c, "profile picture url", dto.ProfilePictureResponse{URL: url})
}
