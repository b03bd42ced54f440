package handler

import (
	"errors"

	"workshop-web/internal/apiclient"
	"workshop-web/internal/middleware"
	"workshop-web/internal/models"
	"workshop-web/internal/repository"
	"workshop-web/internal/service"
	"workshop-web/internal/session"
	"workshop-web/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	client   *apiclient.Client
	sessions *session.Manager
	screens  *service.ScreenRegistry
}

func NewAuthHandler(client *apiclient.Client, sessions *session.Manager, screens *service.ScreenRegistry) *AuthHandler {
	return &AuthHandler{
		client:   client,
		sessions: sessions,
		screens:  screens,
	}
}

func (h *AuthHandler) ShowLogin(c *fiber.Ctx) error {
	return c.Render("auth/login", page(c, "Login", "", nil), layout)
}

func (h *AuthHandler) loginFailed(c *fiber.Ctx, status int, req models.LoginRequest, message string) error {
	if utils.WantsJSON(c) {
		return utils.ErrorResponse(c, status, message, nil)
	}
	return c.Status(status).Render("auth/login", page(c, "Login", "", fiber.Map{
		"Error":    message,
		"Username": req.Username,
	}), layout)
}

// Login proxies the credentials to the backend and stores the returned
// token in the server-side session.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return h.loginFailed(c, fiber.StatusBadRequest, req, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return h.loginFailed(c, fiber.StatusUnprocessableEntity, req, err.Error())
	}

	// Credentials are sent without any prior token.
	resp, err := repository.NewAuthRepository(h.client.WithStore(nil)).Login(c.UserContext(), req)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			return h.loginFailed(c, fiber.StatusUnauthorized, req, "Invalid username or password")
		}
		return h.loginFailed(c, fiber.StatusBadGateway, req, apiclient.UserMessage(err))
	}

	// A new ID is issued on every login so a cookie planted before
	// authentication never carries the token.
	oldID, id, err := h.sessions.Rotate(c)
	if err != nil {
		return failure(c, fiber.StatusInternalServerError, "Failed to save session", err)
	}
	middleware.SetSessionID(c, id)
	h.screens.EvictSession(oldID)

	if err := h.sessions.For(id).SetToken(c.UserContext(), resp.Token); err != nil {
		return failure(c, fiber.StatusInternalServerError, "Failed to save session", err)
	}

	utils.GetLogger().WithField("username", resp.User.Username).Info("User logged in")

	if utils.WantsJSON(c) {
		return utils.SuccessResponse(c, "Login successful", fiber.Map{
			"user":     resp.User,
			"redirect": "/",
		})
	}
	return c.Redirect("/")
}

// Logout revokes the token upstream when possible and always clears the
// local session.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	id := middleware.SessionID(c)
	store := h.sessions.For(id)

	err := repository.NewAuthRepository(h.client.WithStore(store)).Logout(c.UserContext())
	if err != nil && !errors.Is(err, apiclient.ErrUnauthorized) {
		utils.GetLogger().WithError(err).Warn("Backend logout failed, clearing local session anyway")
	}

	if _, err := h.sessions.Destroy(c); err != nil {
		utils.GetLogger().WithError(err).Error("Failed to destroy session on logout")
		if err := store.Clear(c.UserContext()); err != nil {
			utils.GetLogger().WithError(err).Error("Failed to clear session on logout")
		}
	}
	h.screens.EvictSession(id)

	if utils.WantsJSON(c) {
		return utils.SuccessResponse(c, "Logout successful", fiber.Map{"redirect": "/login"})
	}
	return c.Redirect("/login")
}

func (h *AuthHandler) Unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).Render("auth/unauthorized", page(c, "Unauthorized", "", nil), layout)
}
