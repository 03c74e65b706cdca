package handler

import (
	"context"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/messenger-go-api/internal/dto"
	"github.com/noah-isme/messenger-go-api/internal/service"
	"github.com/noah-isme/messenger-go-api/internal/utils"
)

// MediaHandler accepts photo and video message assets. Clients upload the file
// first and send the returned URL as the message content.
type MediaHandler struct {
	service service.MediaService
	logger  zerolog.Logger
}

// NewMediaHandler creates a media handler instance.
func NewMediaHandler(service service.MediaService, logger zerolog.Logger) *MediaHandler {
	return &MediaHandler{
		service: service,
		logger:  logger.With().Str("component", "media_handler").Logger(),
	}
}

// Register binds the upload routes under the provided router group.
func (h *MediaHandler) Register(router fiber.Router) {
	router.Post("/photos", h.uploadPhoto)
	router.Post("/videos", h.uploadVideo)
}

func (h *MediaHandler) uploadPhoto(c *fiber.Ctx) error {
	return h.upload(c, h.service.UploadPhoto)
}

func (h *MediaHandler) uploadVideo(c *fiber.Ctx) error {
	return h.upload(c, h.service.UploadVideo)
}

func (h *MediaHandler) upload(c *fiber.Ctx, store func(ctx context.Context, fileName string, reader io.Reader, size int64) (string, error)) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file required")
	}

	handle, err := file.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "unreadable file")
	}
	defer handle.Close()

	url, err := store(requestContext(c), file.Filename, handle, file.Size)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUploadTooLarge):
			return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "file exceeds the allowed size")
		case errors.Is(err, service.ErrUploadTypeNotAllowed):
			return utils.SendError(c, fiber.StatusBadRequest, "file type not allowed")
		default:
			h.logger.Error().Err(err).Msg("media upload failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to store file")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "media uploaded", dto.MediaUploadResponse{URL: url})
}
