package core

import (
	"fmt"
	"math"

	"github.com/jchiang87/imSim/model"
)

// SpectrumResolver turns a catalog SED triple into an SED normalized to
// magnitude 0 through the shared 500 nm reference bandpass. The magnitude
// scale is applied later by NormalizeFlux.
type SpectrumResolver struct {
	ref *Bandpass
}

// NewSpectrumResolver binds the resolver to the process-wide reference bandpass.
func NewSpectrumResolver() *SpectrumResolver {
	return &SpectrumResolver{ref: ReferenceBandpass()}
}

// Resolve returns the normalized SED and magnorm of obj's component. An
// infinite magnorm yields a nil SED and no error: the caller must not render.
func (r *SpectrumResolver) Resolve(obj *model.CatalogObject, component string) (*SED, float64, error) {
	raw := obj.SED(component)
	if math.IsInf(raw.MagNorm, 0) {
		return nil, raw.MagNorm, nil
	}
	sed, err := NewSEDFromFLambda(raw.Wavelengths, raw.FLambda)
	if err != nil {
		return nil, raw.MagNorm, fmt.Errorf("object %s component %q: %w", obj.ID, component, err)
	}
	sed, err = sed.WithMagnitude(0, r.ref)
	if err != nil {
		return nil, raw.MagNorm, fmt.Errorf("object %s component %q: %w", obj.ID, component, err)
	}
	return sed, raw.MagNorm, nil
}
