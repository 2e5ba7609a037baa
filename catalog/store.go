package catalog

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jchiang87/imSim/model"
)

var (
	// ErrDuplicateObject reports an object ID that is already stored.
	ErrDuplicateObject = errors.New("duplicate catalog object")
	// ErrInvalidObject reports an object that cannot be stored.
	ErrInvalidObject = errors.New("invalid catalog object")
)

// EventType indicates what kind of change happened in the store.
type EventType int

const (
	EventObjectAdded EventType = iota
)

// Event is emitted to subscribers when the store changes.
type Event struct {
	Type   EventType
	Object *model.CatalogObject
}

// Store is an in-memory, thread-safe sky catalog. Objects keep their
// insertion order so region queries are deterministic.
type Store struct {
	mu sync.RWMutex

	objects []*model.CatalogObject
	byID    map[string]int

	subs   []subscriber
	nextID int
}

type subscriber struct {
	id int
	fn func(Event)
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{byID: make(map[string]int)}
}

// Add stores obj. It returns an error if the ID is empty or already exists.
func (s *Store) Add(obj *model.CatalogObject) error {
	if obj == nil {
		return fmt.Errorf("%w: nil object", ErrInvalidObject)
	}
	if obj.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidObject)
	}
	if obj.Dec < -90 || obj.Dec > 90 {
		return fmt.Errorf("%w: %s has dec %g", ErrInvalidObject, obj.ID, obj.Dec)
	}

	s.mu.Lock()
	if _, exists := s.byID[obj.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateObject, obj.ID)
	}
	s.byID[obj.ID] = len(s.objects)
	s.objects = append(s.objects, obj)
	subs := append([]subscriber(nil), s.subs...)
	s.mu.Unlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	event := Event{Type: EventObjectAdded, Object: obj}
	for _, sub := range subs {
		sub.fn(event)
	}
	return nil
}

// Get returns the object with the given ID, or nil if not found.
func (s *Store) Get(id string) *model.CatalogObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return nil
	}
	return s.objects[i]
}

// Len is the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// List returns a snapshot slice of all objects in insertion order.
func (s *Store) List() []*model.CatalogObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*model.CatalogObject(nil), s.objects...)
}

// ObjectsInRegion returns the objects inside box whose type is one of
// types, in insertion order. No types means every type.
func (s *Store) ObjectsInRegion(box model.Box, types ...model.ObjectType) []*model.CatalogObject {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var res []*model.CatalogObject
	for _, obj := range s.objects {
		if !box.Contains(obj.RA, obj.Dec) {
			continue
		}
		if len(types) > 0 && !hasType(types, obj.Type) {
			continue
		}
		res = append(res, obj)
	}
	return res
}

func hasType(types []model.ObjectType, t model.ObjectType) bool {
	for _, want := range types {
		if want == t {
			return true
		}
	}
	return false
}

// Subscribe registers a callback for store events. It returns an unsubscribe function.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}
