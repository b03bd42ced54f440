package handler

import (
	"errors"

	"workshop-web/internal/apiclient"
	"workshop-web/internal/middleware"
	"workshop-web/internal/models"
	"workshop-web/internal/service"
	"workshop-web/internal/utils"

	"github.com/gofiber/fiber/v2"
)

const layout = "layouts/main"

type navItem struct {
	Slug   string
	Title  string
	Active bool
}

// page builds the data every layout-wrapped template expects.
func page(c *fiber.Ctx, title string, active models.ReportType, data fiber.Map) fiber.Map {
	nav := make([]navItem, 0, len(service.ReportTypes))
	for _, rt := range service.ReportTypes {
		nav = append(nav, navItem{Slug: rt.Slug(), Title: service.Title(rt), Active: rt == active})
	}

	state := middleware.AuthState(c)
	out := fiber.Map{
		"Title":         title,
		"Nav":           nav,
		"Authenticated": state.Authenticated,
		"Username":      state.User.Username,
	}
	for k, v := range data {
		out[k] = v
	}
	return out
}

// failure answers JSON callers with the envelope and page loads with the
// error page, via the app error handler.
func failure(c *fiber.Ctx, status int, message string, err error) error {
	if utils.WantsJSON(c) {
		return utils.ErrorResponse(c, status, message, err)
	}
	if err != nil {
		utils.GetLogger().WithError(err).WithField("path", c.Path()).Warn(message)
	}
	return fiber.NewError(status, message)
}

// ErrorHandler is the application's fiber.ErrorHandler. A 401 from the
// backend anywhere in the request ends on the login page.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if apiclient.IsUnauthorized(err) {
		if utils.WantsJSON(c) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success":  false,
				"message":  apiclient.ErrUnauthorized.Error(),
				"redirect": "/login",
			})
		}
		return c.Redirect("/login")
	}

	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		utils.GetLogger().WithError(err).WithField("path", c.Path()).Error("Unhandled request error")
	}

	if utils.WantsJSON(c) {
		return c.Status(code).JSON(utils.Response{
			Success: false,
			Message: message,
		})
	}

	if renderErr := c.Status(code).Render("error", fiber.Map{
		"Title":   message,
		"Code":    code,
		"Message": message,
	}); renderErr != nil {
		return c.Status(code).SendString(message)
	}
	return nil
}
