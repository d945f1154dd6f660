package backups

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists integrations.
type Store interface {
	List(ctx context.Context) ([]Integration, error)
	Get(ctx context.Context, id string) (Integration, error)
	Create(ctx context.Context, in Integration) (Integration, error)
	Update(ctx context.Context, in Integration) (Integration, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Integration
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]Integration{}, now: time.Now}
}

func (s *MemoryStore) List(_ context.Context) ([]Integration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Integration, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	SortIntegrations(out)
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Integration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[strings.TrimSpace(id)]
	if !ok {
		return Integration{}, ErrNotFound
	}
	return item, nil
}

func (s *MemoryStore) Create(_ context.Context, in Integration) (Integration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	in.ID = uuid.NewString()
	in.CreatedAt = now
	in.UpdatedAt = now
	s.items[in.ID] = in
	return in, nil
}

func (s *MemoryStore) Update(_ context.Context, in Integration) (Integration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[in.ID]
	if !ok {
		return Integration{}, ErrNotFound
	}
	in.Kind = existing.Kind
	in.CreatedAt = existing.CreatedAt
	in.UpdatedAt = s.now().UTC()
	s.items[in.ID] = in
	return in, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = strings.TrimSpace(id)
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// SortIntegrations orders by kind, then case-insensitive name, then id.
func SortIntegrations(items []Integration) {
	slices.SortFunc(items, func(a, b Integration) int {
		if c := strings.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}
		if c := strings.Compare(strings.ToLower(a.Config.Name), strings.ToLower(b.Config.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
