package auth

import (
	"strings"
	"time"

	"workshop-web/internal/utils"

	"github.com/sirupsen/logrus"
)

// User is the identity carried by an authenticated session.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// State is either unauthenticated or authenticated with a user and roles.
type State struct {
	Authenticated bool
	User          User
	Roles         []string
}

// Unauthenticated is the zero state.
var Unauthenticated = State{}

// HasAnyRole reports whether the state intersects the required set.
// An empty set is always satisfied.
func (s State) HasAnyRole(required ...string) bool {
	if len(required) == 0 {
		return true
	}
	for _, want := range required {
		want = NormalizeRole(want)
		for _, have := range s.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

type Decision int

const (
	DecisionAllow Decision = iota
	DecisionLogin
	DecisionUnauthorized
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionLogin:
		return "login"
	case DecisionUnauthorized:
		return "unauthorized"
	}
	return "unknown"
}

// Gate decides route accessibility from session state. It owns no data.
type Gate struct {
	secret string
	now    func() time.Time
	logger *logrus.Logger
}

func NewGate(secret string, logger *logrus.Logger) *Gate {
	return &Gate{
		secret: secret,
		now:    time.Now,
		logger: logger,
	}
}

// Resolve maps a stored token to a state. Anything that is not a readable,
// unexpired token is Unauthenticated.
func (g *Gate) Resolve(token string) State {
	if token == "" {
		return Unauthenticated
	}

	claims, err := utils.ParseToken(token, g.secret, g.now())
	if err != nil {
		g.logger.WithError(err).Debug("Session token rejected")
		return Unauthenticated
	}

	user := User{ID: claims.UserID, Username: claims.Username}
	if user.Username == "" {
		user.Username = claims.Subject
	}

	roles := make([]string, 0, len(claims.Roles)+1)
	for _, r := range claims.Roles {
		if r = NormalizeRole(r); r != "" {
			roles = append(roles, r)
		}
	}
	if r := NormalizeRole(claims.Role); r != "" {
		roles = append(roles, r)
	}

	return State{
		Authenticated: true,
		User:          user,
		Roles:         roles,
	}
}

// Authorize applies the guard for a protected view.
func (g *Gate) Authorize(state State, required ...string) Decision {
	if !state.Authenticated {
		return DecisionLogin
	}
	if !state.HasAnyRole(required...) {
		return DecisionUnauthorized
	}
	return DecisionAllow
}

// NormalizeRole upper-cases a role and strips a Spring-style ROLE_ prefix.
func NormalizeRole(role string) string {
	role = strings.ToUpper(strings.TrimSpace(role))
	return strings.TrimPrefix(role, "ROLE_")
}
