package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
)

var errNoSession = errors.New("failed to save session token: no session")

const (
	tokenKeyPrefix = "token:"
	keyIssuedAt    = "issued_at"
)

type Config struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Manager issues browser sessions through fiber's session store and keeps
// each session's bearer token beside it in the same storage.
type Manager struct {
	store      *fibersession.Store
	storage    fiber.Storage
	cookieName string
	ttl        time.Duration
}

func NewManager(storage fiber.Storage, cfg Config) *Manager {
	store := fibersession.New(fibersession.Config{
		Expiration:     cfg.TTL,
		Storage:        storage,
		KeyLookup:      "cookie:" + cfg.CookieName,
		CookiePath:     "/",
		CookieSecure:   cfg.Secure,
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		KeyGenerator:   uuid.NewString,
	})

	return &Manager{
		store:      store,
		storage:    storage,
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
	}
}

// Start loads the request's session and refreshes its cookie. A cookie the
// store never issued is replaced with a new ID instead of being adopted.
func (m *Manager) Start(c *fiber.Ctx) (string, error) {
	m.dropForeignCookie(c)
	sess, err := m.store.Get(c)
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}

	if sess.Fresh() {
		if err := sess.Regenerate(); err != nil {
			return "", fmt.Errorf("failed to issue session: %w", err)
		}
		sess.Set(keyIssuedAt, time.Now().UTC().Format(time.RFC3339))
	}

	id := sess.ID()
	if err := sess.Save(); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return id, nil
}

// Rotate moves the request onto a new session ID and drops whatever token
// the old ID held. Login calls it before storing the new token.
func (m *Manager) Rotate(c *fiber.Ctx) (oldID, newID string, err error) {
	m.dropForeignCookie(c)
	sess, err := m.store.Get(c)
	if err != nil {
		return "", "", fmt.Errorf("failed to load session: %w", err)
	}

	oldID = sess.ID()
	if err := sess.Regenerate(); err != nil {
		return "", "", fmt.Errorf("failed to rotate session: %w", err)
	}
	sess.Set(keyIssuedAt, time.Now().UTC().Format(time.RFC3339))

	newID = sess.ID()
	if err := sess.Save(); err != nil {
		return "", "", fmt.Errorf("failed to save session: %w", err)
	}
	if err := m.storage.Delete(tokenKey(oldID)); err != nil {
		return "", "", fmt.Errorf("failed to drop previous session token: %w", err)
	}
	return oldID, newID, nil
}

// Destroy removes the session, its token and the cookie. It returns the ID
// that was destroyed.
func (m *Manager) Destroy(c *fiber.Ctx) (string, error) {
	m.dropForeignCookie(c)
	sess, err := m.store.Get(c)
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}

	id := sess.ID()
	if err := m.storage.Delete(tokenKey(id)); err != nil {
		return "", fmt.Errorf("failed to delete session token: %w", err)
	}
	if err := sess.Destroy(); err != nil {
		return "", fmt.Errorf("failed to destroy session: %w", err)
	}
	return id, nil
}

// ValidID rejects cookie values that could not have been issued by the
// key generator.
func (m *Manager) ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// dropForeignCookie removes a malformed session cookie from the request so
// the store treats it as a new visitor.
func (m *Manager) dropForeignCookie(c *fiber.Ctx) {
	if id := c.Cookies(m.cookieName); id != "" && !m.ValidID(id) {
		c.Request().Header.DelCookie(m.cookieName)
	}
}

// Prune drops expired entries when the storage needs a sweep. Redis expires
// keys itself and reports zero.
func (m *Manager) Prune() int {
	if p, ok := m.storage.(interface{ Prune() int }); ok {
		return p.Prune()
	}
	return 0
}

// For binds a Store to one browser session.
func (m *Manager) For(sessionID string) Store {
	return &boundStore{
		storage:   m.storage,
		sessionID: sessionID,
		ttl:       m.ttl,
	}
}

func tokenKey(sessionID string) string {
	return tokenKeyPrefix + sessionID
}

type boundStore struct {
	storage   fiber.Storage
	sessionID string
	ttl       time.Duration
}

func (s *boundStore) GetToken(ctx context.Context) (string, error) {
	if s.sessionID == "" {
		return "", nil
	}
	raw, err := s.storage.Get(tokenKey(s.sessionID))
	if err != nil {
		return "", fmt.Errorf("failed to read session token: %w", err)
	}
	return string(raw), nil
}

func (s *boundStore) SetToken(ctx context.Context, token string) error {
	if s.sessionID == "" {
		return errNoSession
	}
	if token == "" {
		return s.Clear(ctx)
	}
	if err := s.storage.Set(tokenKey(s.sessionID), []byte(token), s.ttl); err != nil {
		return fmt.Errorf("failed to save session token: %w", err)
	}
	return nil
}

func (s *boundStore) Clear(ctx context.Context) error {
	if s.sessionID == "" {
		return nil
	}
	if err := s.storage.Delete(tokenKey(s.sessionID)); err != nil {
		return fmt.Errorf("failed to delete session token: %w", err)
	}
	return nil
}
