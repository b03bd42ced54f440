package utils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Response is the envelope every JSON endpoint replies with.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func SuccessResponse(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	resp := Response{
		Success: false,
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
		GetLogger().WithError(err).WithField("path", c.Path()).Warn(message)
	}

	return c.Status(status).JSON(resp)
}

// WantsJSON reports whether the caller is an XHR/API client rather than a page load.
func WantsJSON(c *fiber.Ctx) bool {
	if strings.HasPrefix(c.Path(), "/api/") {
		return true
	}
	if c.Get(fiber.HeaderXRequestedWith) == "XMLHttpRequest" {
		return true
	}
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}
