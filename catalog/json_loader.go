package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/jchiang87/imSim/model"
)

// LoadSummary reports what a loader added to a store.
type LoadSummary struct {
	Objects       int
	Subcomponents int
	ByType        map[model.ObjectType]int
}

func (s *LoadSummary) record(obj *model.CatalogObject) {
	if s.ByType == nil {
		s.ByType = make(map[model.ObjectType]int)
	}
	s.Objects++
	s.ByType[obj.Type]++
	if n := len(obj.Subcomponents); n > 0 {
		s.Subcomponents += n
	} else {
		s.Subcomponents++
	}
}

// internal JSON shapes – keep them unexported so we're free to evolve them.
type catalogJSON struct {
	Objects []objectJSON `json:"objects"`
}

type objectJSON struct {
	ID            string             `json:"id"`
	Type          string             `json:"type"` // "star" | "galaxy"
	RA            float64            `json:"ra"`
	Dec           float64            `json:"dec"`
	Subcomponents []string           `json:"subcomponents"`
	Attributes    map[string]float64 `json:"attributes"`
	SEDs          map[string]sedJSON `json:"seds"` // keyed by component, "" for bare objects
}

type sedJSON struct {
	Wavelengths []float64 `json:"wavelengths"`
	FLambda     []float64 `json:"flambda"`
	// MagNorm is null for sources that must not be rendered.
	MagNorm *float64 `json:"magnorm"`
}

// LoadJSON reads a JSON catalog from r into store.
func LoadJSON(store *Store, r io.Reader) (*LoadSummary, error) {
	if store == nil {
		return nil, fmt.Errorf("LoadJSON: store is nil")
	}

	var payload catalogJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadJSON: decode failed: %w", err)
	}

	summary := &LoadSummary{}
	for _, js := range payload.Objects {
		obj := &model.CatalogObject{
			ID:            js.ID,
			Type:          objectTypeFromString(js.Type),
			RA:            js.RA,
			Dec:           js.Dec,
			Subcomponents: js.Subcomponents,
			Attributes:    js.Attributes,
			SEDs:          make(map[string]model.SEDData, len(js.SEDs)),
		}
		for component, sed := range js.SEDs {
			magnorm := math.Inf(1)
			if sed.MagNorm != nil {
				magnorm = *sed.MagNorm
			}
			obj.SEDs[component] = model.SEDData{
				Wavelengths: sed.Wavelengths,
				FLambda:     sed.FLambda,
				MagNorm:     magnorm,
			}
		}
		if err := store.Add(obj); err != nil {
			return nil, fmt.Errorf("LoadJSON: %w", err)
		}
		summary.record(obj)
	}
	return summary, nil
}

// objectTypeFromString normalizes case and whitespace. Unknown types are
// kept verbatim so the pipeline can report them as unsupported.
func objectTypeFromString(s string) model.ObjectType {
	return model.ObjectType(strings.ToLower(strings.TrimSpace(s)))
}
