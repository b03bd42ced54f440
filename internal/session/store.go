package session

import (
	"context"
	"sync"
)

// Store is the token capability handed to the HTTP client: read on every
// request, written only by login and logout (or a 401).
type Store interface {
	GetToken(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// StaticStore holds a single token in memory. The worker uses it to replay a
// user's token for background polling.
type StaticStore struct {
	mu    sync.RWMutex
	token string
}

func NewStaticStore(token string) *StaticStore {
	return &StaticStore{token: token}
}

func (s *StaticStore) GetToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *StaticStore) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *StaticStore) Clear(ctx context.Context) error {
	return s.SetToken(ctx, "")
}
