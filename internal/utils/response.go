package utils

import "github.com/gofiber/fiber/v2"

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
}

// SendSuccess answers 200 with the standard envelope.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus answers with the given status and the standard envelope.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	if status == 0 {
		status = fiber.StatusOK
	}

	return send(c, status, APIResponse{
		Success: true,
		Data:    data,
		Message: defaultMessage(message, "success"),
	})
}

// SendError answers with the given status and an error envelope without data.
func SendError(c *fiber.Ctx, status int, message string) error {
	return send(c, status, APIResponse{
		Success: false,
		Message: defaultMessage(message, "error"),
	})
}

func send(c *fiber.Ctx, status int, payload APIResponse) error {
	return c.Status(status).JSON(payload)
}

func defaultMessage(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}
