package show

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/lumenstage/lumen/internal/engineerr"
)

// Store is the typed container for one object kind: a uuid-keyed map of
// objects plus an optional pool-id shortcut map, mirroring the source's
// "objects.get::<T>(id)" access pattern.
type Store[T any] struct {
	kind ObjectKind

	mu      sync.RWMutex
	objects map[uuid.UUID]*T
	names   map[uuid.UUID]string
	pools   map[PoolID]uuid.UUID
}

// NewStore returns an empty Store for the given kind.
func NewStore[T any](kind ObjectKind) *Store[T] {
	return &Store[T]{
		kind:    kind,
		objects: make(map[uuid.UUID]*T),
		names:   make(map[uuid.UUID]string),
		pools:   make(map[PoolID]uuid.UUID),
	}
}

// Create stores obj under id with the given display name, failing with
// ErrDuplicateID if already present. If poolID is non-zero, it is bound to
// id, overwriting any previous binding of that pool slot.
func (s *Store[T]) Create(id ObjectID, name string, obj *T, poolID PoolID) error {
	if err := checkKind(id, s.kind); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects[id.UUID]; exists {
		return fmt.Errorf("object %s: %w", id, engineerr.ErrDuplicateID)
	}
	s.objects[id.UUID] = obj
	s.names[id.UUID] = name
	if poolID != 0 {
		s.pools[poolID] = id.UUID
	}
	return nil
}

// Get returns the object for id.
func (s *Store[T]) Get(id ObjectID) (*T, error) {
	if err := checkKind(id, s.kind); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[id.UUID]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", id, engineerr.ErrUnknownID)
	}
	return obj, nil
}

// ByPool resolves a pool-slot binding to its object, if bound.
func (s *Store[T]) ByPool(poolID PoolID) (*T, ObjectID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.pools[poolID]
	if !ok {
		return nil, ObjectID{}, false
	}
	return s.objects[id], ObjectID{Kind: s.kind, UUID: id}, true
}

// SetPool binds poolID to id, overwriting any existing binding.
func (s *Store[T]) SetPool(poolID PoolID, id ObjectID) error {
	if err := checkKind(id, s.kind); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[id.UUID]; !ok {
		return fmt.Errorf("object %s: %w", id, engineerr.ErrUnknownID)
	}
	s.pools[poolID] = id.UUID
	return nil
}

// Remove deletes id and any pool binding pointing at it.
func (s *Store[T]) Remove(id ObjectID) error {
	if err := checkKind(id, s.kind); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[id.UUID]; !ok {
		return fmt.Errorf("object %s: %w", id, engineerr.ErrUnknownID)
	}
	delete(s.objects, id.UUID)
	delete(s.names, id.UUID)
	for pool, target := range s.pools {
		if target == id.UUID {
			delete(s.pools, pool)
		}
	}
	return nil
}

// Rename changes id's display name.
func (s *Store[T]) Rename(id ObjectID, name string) error {
	if err := checkKind(id, s.kind); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[id.UUID]; !ok {
		return fmt.Errorf("object %s: %w", id, engineerr.ErrUnknownID)
	}
	s.names[id.UUID] = name
	return nil
}

// Name returns id's display name.
func (s *Store[T]) Name(id ObjectID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.names[id.UUID]
	return name, ok
}

// IDs returns every object id currently stored, in a stable (sorted)
// order.
func (s *Store[T]) IDs() []ObjectID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]ObjectID, 0, len(s.objects))
	for id := range s.objects {
		ids = append(ids, ObjectID{Kind: s.kind, UUID: id})
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].UUID.String() < ids[j].UUID.String() })
	return ids
}

// Len returns the number of objects stored.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
