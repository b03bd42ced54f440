package session

import (
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStorage is a fiber.Storage kept in process. Used when Redis is
// unavailable and in tests. Expired entries are dropped on read and by Prune.
type MemoryStorage struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStorage) expired(entry memoryEntry, now time.Time) bool {
	return !entry.expiresAt.IsZero() && !entry.expiresAt.After(now)
}

func (s *MemoryStorage) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if s.expired(entry, s.now()) {
		delete(s.entries, key)
		return nil, nil
	}
	out := make([]byte, len(entry.data))
	copy(out, entry.data)
	return out, nil
}

func (s *MemoryStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}

	data := make([]byte, len(val))
	copy(data, val)
	entry := memoryEntry{data: data}
	s.mu.Lock()
	if exp > 0 {
		entry.expiresAt = s.now().Add(exp)
	}
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Delete(key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Reset() error {
	s.mu.Lock()
	s.entries = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}

// Prune removes every expired entry and reports how many went.
func (s *MemoryStorage) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, entry := range s.entries {
		if s.expired(entry, now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries, expired ones included.
func (s *MemoryStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
