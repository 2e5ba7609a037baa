package catalog

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jchiang87/imSim/core"
	"github.com/jchiang87/imSim/model"
)

var _ core.CatalogStore = (*Store)(nil)

func obj(id string, typ model.ObjectType, ra, dec float64) *model.CatalogObject {
	return &model.CatalogObject{ID: id, Type: typ, RA: ra, Dec: dec}
}

func TestAddAndGetObject(t *testing.T) {
	store := NewStore()
	if err := store.Add(obj("g1", model.ObjectTypeGalaxy, 10, -30)); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	got := store.Get("g1")
	if got == nil || got.RA != 10 {
		t.Fatalf("Get returned %#v", got)
	}
	if store.Get("missing") != nil {
		t.Fatalf("expected nil for unknown id")
	}
}

func TestAddValidation(t *testing.T) {
	store := NewStore()
	if err := store.Add(obj("g1", model.ObjectTypeGalaxy, 0, 0)); err != nil {
		t.Fatalf("first Add error: %v", err)
	}
	if err := store.Add(obj("g1", model.ObjectTypeStar, 1, 1)); !errors.Is(err, ErrDuplicateObject) {
		t.Fatalf("err = %v, want ErrDuplicateObject", err)
	}
	for _, bad := range []*model.CatalogObject{nil, obj("", model.ObjectTypeStar, 0, 0), obj("x", model.ObjectTypeStar, 0, 91)} {
		if err := store.Add(bad); !errors.Is(err, ErrInvalidObject) {
			t.Fatalf("Add(%v) err = %v, want ErrInvalidObject", bad, err)
		}
	}
	if store.Len() != 1 {
		t.Fatalf("len = %d, want 1", store.Len())
	}
}

func TestObjectsInRegionFiltersAndKeepsOrder(t *testing.T) {
	store := NewStore()
	for _, o := range []*model.CatalogObject{
		obj("g1", model.ObjectTypeGalaxy, 10.0, -30.0),
		obj("s1", model.ObjectTypeStar, 10.1, -30.1),
		obj("g-far", model.ObjectTypeGalaxy, 50, -30),
		obj("g2", model.ObjectTypeGalaxy, 9.9, -29.9),
	} {
		if err := store.Add(o); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	box := model.Box{RAMin: 9.5, RAMax: 10.5, DecMin: -30.5, DecMax: -29.5}

	galaxies := store.ObjectsInRegion(box, model.ObjectTypeGalaxy)
	if len(galaxies) != 2 || galaxies[0].ID != "g1" || galaxies[1].ID != "g2" {
		t.Fatalf("galaxies = %v", galaxies)
	}
	if all := store.ObjectsInRegion(box); len(all) != 3 {
		t.Fatalf("all types = %v", all)
	}
}

func TestObjectsInRegionWrapsRA(t *testing.T) {
	store := NewStore()
	_ = store.Add(obj("east", model.ObjectTypeStar, 359.95, 0))
	_ = store.Add(obj("west", model.ObjectTypeStar, 0.05, 0))
	_ = store.Add(obj("far", model.ObjectTypeStar, 180, 0))
	got := store.ObjectsInRegion(model.Box{RAMin: 359.9, RAMax: 0.1, DecMin: -1, DecMax: 1})
	if len(got) != 2 {
		t.Fatalf("wrapped query = %v", got)
	}
}

func TestSubscribeReceivesAdds(t *testing.T) {
	store := NewStore()
	var mu sync.Mutex
	var seen []string
	unsubscribe := store.Subscribe(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		if ev.Type == EventObjectAdded {
			seen = append(seen, ev.Object.ID)
		}
	})
	_ = store.Add(obj("a", model.ObjectTypeStar, 0, 0))
	unsubscribe()
	_ = store.Add(obj("b", model.ObjectTypeStar, 0, 0))

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != "a" {
		t.Fatalf("seen = %v, want [a]", seen)
	}
}

func TestConcurrentAdds(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Add(obj(fmt.Sprintf("o-%d", i), model.ObjectTypeStar, float64(i), 0))
		}()
	}
	wg.Wait()
	if store.Len() != 50 || len(store.List()) != 50 {
		t.Fatalf("len = %d, want 50", store.Len())
	}
}

func TestUnsubscribeOutOfOrder(t *testing.T) {
	store := NewStore()
	var a, b, c int
	unsubA := store.Subscribe(func(Event) { a++ })
	unsubB := store.Subscribe(func(Event) { b++ })
	store.Subscribe(func(Event) { c++ })

	unsubA()
	unsubB()
	unsubB()
	_ = store.Add(obj("x", model.ObjectTypeStar, 0, 0))

	if a != 0 || b != 0 || c != 1 {
		t.Fatalf("calls a=%d b=%d c=%d, want 0 0 1", a, b, c)
	}
}
