package core

import (
	"fmt"
	"math"
)

// RubinCollectingArea is the area-weighted effective aperture of the Rubin
// telescope over the field of view, in cm^2.
var RubinCollectingArea = 0.25 * math.Pi * 649 * 649

// InvisibleMagNorm is the magnorm at and beyond which sources are skipped.
const InvisibleMagNorm = 50.0

// ln10Over2p5 is 0.4*ln(10).
const ln10Over2p5 = 0.9210340371976184

// MagNormToFlux converts magnorm to the linear scale 10^(-0.4 magnorm) of the
// magnitude-0 normalized SED.
func MagNormToFlux(magnorm float64) float64 {
	return math.Exp(-ln10Over2p5 * magnorm)
}

// TotalPhotons returns the photon multiplier of a magnitude-0 SED for the
// given collecting area (cm^2) and exposure (s).
func TotalPhotons(magnorm, area, expTime float64) float64 {
	return MagNormToFlux(magnorm) * area * expTime
}

// FluxOptions select how NormalizeFlux scales a profile.
type FluxOptions struct {
	Area    float64 // cm^2
	ExpTime float64 // s
	// Chromatic keeps the SED on the profile; otherwise the SED is integrated
	// through Bandpass and dropped.
	Chromatic bool
	Bandpass  *Bandpass
}

// NormalizeFlux scales p to its expected photon count.
func NormalizeFlux(p *GeometricProfile, sed *SED, magnorm float64, opts FluxOptions) (*GeometricProfile, error) {
	fAt := TotalPhotons(magnorm, opts.Area, opts.ExpTime)
	if opts.Chromatic {
		return p.WithFlux(fAt).WithSED(sed), nil
	}
	if opts.Bandpass == nil {
		return nil, fmt.Errorf("achromatic flux needs a bandpass")
	}
	return p.WithFlux(sed.CalculateFlux(opts.Bandpass) * fAt), nil
}
