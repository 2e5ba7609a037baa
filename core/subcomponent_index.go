package core

import (
	"fmt"

	"github.com/jchiang87/imSim/model"
)

// SubcomponentKey addresses one renderable piece of a catalog object.
// Component is "" for objects without subcomponents.
type SubcomponentKey struct {
	ObjectIndex int
	Component   string
}

// SubcomponentIndex flattens catalog objects and their subcomponents into a
// dense index space [0, Count()).
type SubcomponentIndex struct {
	keys []SubcomponentKey
}

// BuildSubcomponentIndex emits one key per declared subcomponent, or a single
// key with an empty component for objects that declare none. Catalog order is
// preserved, then subcomponent declaration order.
func BuildSubcomponentIndex(objects []*model.CatalogObject) *SubcomponentIndex {
	keys := make([]SubcomponentKey, 0, len(objects))
	for i, obj := range objects {
		if obj == nil || len(obj.Subcomponents) == 0 {
			keys = append(keys, SubcomponentKey{ObjectIndex: i})
			continue
		}
		for _, c := range obj.Subcomponents {
			keys = append(keys, SubcomponentKey{ObjectIndex: i, Component: c})
		}
	}
	return &SubcomponentIndex{keys: keys}
}

// Count returns the number of indexable subcomponents.
func (x *SubcomponentIndex) Count() int {
	if x == nil {
		return 0
	}
	return len(x.keys)
}

// Resolve maps an index to its key.
func (x *SubcomponentIndex) Resolve(index int) (SubcomponentKey, error) {
	if index < 0 || index >= x.Count() {
		return SubcomponentKey{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, x.Count())
	}
	return x.keys[index], nil
}
