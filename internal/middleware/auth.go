package middleware

import (
	"workshop-web/internal/auth"
	"workshop-web/internal/session"
	"workshop-web/internal/utils"

	"github.com/gofiber/fiber/v2"
)

const (
	localSessionID = "session_id"
	localAuthState = "auth_state"
)

// SessionMiddleware makes sure every request carries a server-issued
// session cookie. The token itself never leaves the server.
func SessionMiddleware(manager *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := manager.Start(c)
		if err != nil {
			return err
		}
		c.Locals(localSessionID, id)
		return c.Next()
	}
}

// SessionID returns the ID assigned by SessionMiddleware, or the one set
// after a rotation.
func SessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(localSessionID).(string)
	return id
}

// SetSessionID records a rotated session ID for the rest of the request.
func SetSessionID(c *fiber.Ctx, id string) {
	c.Locals(localSessionID, id)
}

// AuthState returns the state resolved by WebAuthMiddleware.
func AuthState(c *fiber.Ctx) auth.State {
	state, ok := c.Locals(localAuthState).(auth.State)
	if !ok {
		return auth.Unauthenticated
	}
	return state
}

func resolve(c *fiber.Ctx, manager *session.Manager, gate *auth.Gate) auth.State {
	id := SessionID(c)
	if id == "" {
		return auth.Unauthenticated
	}

	store := manager.For(id)
	token, err := store.GetToken(c.UserContext())
	if err != nil {
		utils.GetLogger().WithError(err).Warn("Failed to read session token")
		return auth.Unauthenticated
	}

	state := gate.Resolve(token)
	if token != "" && !state.Authenticated {
		// Expired or unreadable tokens are dropped so the session is clean.
		if err := store.Clear(c.UserContext()); err != nil {
			utils.GetLogger().WithError(err).Warn("Failed to clear rejected session token")
		}
	}
	return state
}

func loginRequired(c *fiber.Ctx) error {
	if utils.WantsJSON(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success":  false,
			"message":  "Authentication required",
			"redirect": "/login",
		})
	}
	return c.Redirect("/login")
}

// WebAuthMiddleware only lets Authenticated sessions through.
func WebAuthMiddleware(manager *session.Manager, gate *auth.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		state := resolve(c, manager, gate)
		if gate.Authorize(state) == auth.DecisionLogin {
			return loginRequired(c)
		}

		c.Locals(localAuthState, state)
		c.Locals("user_id", state.User.ID)
		c.Locals("username", state.User.Username)
		c.Locals("roles", state.Roles)
		return c.Next()
	}
}

// RequireRoles sends sessions whose roles miss the required set to the
// unauthorized placeholder. It must run after WebAuthMiddleware.
func RequireRoles(gate *auth.Gate, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch gate.Authorize(AuthState(c), roles...) {
		case auth.DecisionLogin:
			return loginRequired(c)
		case auth.DecisionUnauthorized:
			if utils.WantsJSON(c) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"success":  false,
					"message":  "You do not have access to this page",
					"redirect": "/unauthorized",
				})
			}
			return c.Redirect("/unauthorized")
		}
		return c.Next()
	}
}

// GuestMiddleware keeps logged-in users away from the login page.
func GuestMiddleware(manager *session.Manager, gate *auth.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if resolve(c, manager, gate).Authenticated {
			return c.Redirect("/")
		}
		return c.Next()
	}
}
