package billing

import (
	"context"
	"maps"
	"sync"
	"time"
)

// MappingStore persists CustomerMapping rows keyed by user id.
type MappingStore interface {
	// GetByUserID returns ErrMappingNotFound when the user has no mapping.
	GetByUserID(ctx context.Context, userID string) (*CustomerMapping, error)

	// Insert stores m unless a mapping for m.UserID already exists, and
	// returns the row that is stored after the call. Concurrent inserts for
	// the same user must leave exactly one row.
	Insert(ctx context.Context, m CustomerMapping) (*CustomerMapping, error)
}

type memoryMappings struct {
	mu   sync.RWMutex
	rows map[string]CustomerMapping
}

// NewMemoryMappings returns a MappingStore kept in process memory.
func NewMemoryMappings(initial ...CustomerMapping) MappingStore {
	s := &memoryMappings{rows: make(map[string]CustomerMapping, len(initial))}
	for _, m := range initial {
		s.rows[m.UserID] = cloneMapping(m)
	}
	return s
}

func (s *memoryMappings) GetByUserID(_ context.Context, userID string) (*CustomerMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.rows[userID]
	if !ok {
		return nil, ErrMappingNotFound
	}
	out := cloneMapping(m)
	return &out, nil
}

func (s *memoryMappings) Insert(_ context.Context, m CustomerMapping) (*CustomerMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.rows[m.UserID]; ok {
		out := cloneMapping(existing)
		return &out, nil
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	s.rows[m.UserID] = cloneMapping(m)
	out := cloneMapping(m)
	return &out, nil
}

func cloneMapping(m CustomerMapping) CustomerMapping {
	m.Metadata = maps.Clone(m.Metadata)
	if m.Metadata == nil {
		m.Metadata = map[string]any{}
	}
	return m
}
