package service

import (
	"strings"
	"sync"
	"time"

	"workshop-web/internal/export"
	"workshop-web/internal/models"

	"github.com/sirupsen/logrus"
)

// BackendFactory returns a backend bound to one browser session.
type BackendFactory func(sessionID string) ReportBackend

// ScreenRegistry owns every live report screen, keyed by session and
// report type.
type ScreenRegistry struct {
	mu      sync.Mutex
	screens map[string]*Screen

	backends BackendFactory
	guard    export.Guard
	formats  []string
	logger   *logrus.Logger
}

func NewScreenRegistry(backends BackendFactory, guard export.Guard, formats []string, logger *logrus.Logger) *ScreenRegistry {
	return &ScreenRegistry{
		screens:  make(map[string]*Screen),
		backends: backends,
		guard:    guard,
		formats:  formats,
		logger:   logger,
	}
}

func screenKey(sessionID string, rt models.ReportType) string {
	return sessionID + ":" + string(rt)
}

// Get returns the session's screen for rt, mounting it on first use.
func (r *ScreenRegistry) Get(sessionID string, rt models.ReportType) (*Screen, error) {
	if _, ok := definitions[rt]; !ok {
		return nil, ErrUnknownReport
	}
	key := screenKey(sessionID, rt)

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.screens[key]; ok {
		return s, nil
	}

	backend := r.backends(sessionID)
	ctrl := export.NewController(key, backend, r.guard, r.formats)
	s, err := NewScreen(rt, backend, ctrl, r.logger)
	if err != nil {
		return nil, err
	}
	r.screens[key] = s
	r.logger.WithFields(logrus.Fields{
		"report":  rt,
		"screens": len(r.screens),
	}).Debug("Mounted report screen")
	return s, nil
}

// EvictSession drops every screen belonging to a session.
func (r *ScreenRegistry) EvictSession(sessionID string) int {
	prefix := sessionID + ":"

	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for key := range r.screens {
		if strings.HasPrefix(key, prefix) {
			delete(r.screens, key)
			n++
		}
	}
	return n
}

// EvictIdle drops screens not touched since cutoff.
func (r *ScreenRegistry) EvictIdle(cutoff time.Time) int {
	r.mu.Lock()
	candidates := make(map[string]*Screen, len(r.screens))
	for key, s := range r.screens {
		candidates[key] = s
	}
	r.mu.Unlock()

	stale := make([]string, 0)
	for key, s := range candidates {
		if s.LastActive().Before(cutoff) {
			stale = append(stale, key)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, key := range stale {
		if s, ok := r.screens[key]; ok && s.LastActive().Before(cutoff) {
			delete(r.screens, key)
			n++
		}
	}
	return n
}

func (r *ScreenRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.screens)
}
