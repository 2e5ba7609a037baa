package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate"
)

// SED is a spectral energy distribution in photons/nm/cm^2/s.
type SED struct {
	table *LookupTable
	scale float64
}

// NewSEDFromFLambda converts a tabulated f_lambda spectrum (erg/s/cm^2/nm at
// wavelengths in nm) to photon units.
func NewSEDFromFLambda(wavelengths, flambda []float64) (*SED, error) {
	if len(wavelengths) != len(flambda) {
		return nil, fmt.Errorf("%w: %d wavelengths vs %d flux densities", ErrBadLookupTable, len(wavelengths), len(flambda))
	}
	fphot := make([]float64, len(flambda))
	for i, fl := range flambda {
		fphot[i] = fl * wavelengths[i] / (planckErgSec * speedOfLightNm)
	}
	t, err := NewLookupTable(wavelengths, fphot)
	if err != nil {
		return nil, err
	}
	return &SED{table: t, scale: 1}, nil
}

// Eval returns the photon flux density at wavelength nm.
func (s *SED) Eval(nm float64) float64 { return s.scale * s.table.Eval(nm) }

// BlueLimit is the shortest tabulated wavelength.
func (s *SED) BlueLimit() float64 { return s.table.XMin() }

// RedLimit is the longest tabulated wavelength.
func (s *SED) RedLimit() float64 { return s.table.XMax() }

// CalculateFlux integrates the SED through bp, in photons/s/cm^2.
func (s *SED) CalculateFlux(bp *Bandpass) float64 {
	lo := math.Max(s.BlueLimit(), bp.BlueLimit())
	hi := math.Min(s.RedLimit(), bp.RedLimit())
	if hi <= lo {
		return 0
	}
	grid := integrationGrid(s.table.Xs(), bp.table.Xs(), lo, hi, 2)
	f := make([]float64, len(grid))
	for i, nm := range grid {
		f[i] = s.Eval(nm) * bp.Throughput(nm)
	}
	return integrate.Simpsons(grid, f)
}

// CalculateMagnitude returns the AB magnitude of the SED through bp.
func (s *SED) CalculateMagnitude(bp *Bandpass) float64 {
	return -2.5*math.Log10(s.CalculateFlux(bp)) + bp.Zeropoint()
}

// WithMagnitude returns a copy rescaled to magnitude mag through bp.
func (s *SED) WithMagnitude(mag float64, bp *Bandpass) (*SED, error) {
	flux := s.CalculateFlux(bp)
	if flux <= 0 || math.IsNaN(flux) || math.IsInf(flux, 0) {
		return nil, fmt.Errorf("%w: SED has no flux in bandpass %s", ErrBadLookupTable, bp.Name)
	}
	current := -2.5*math.Log10(flux) + bp.Zeropoint()
	return &SED{table: s.table, scale: s.scale * math.Pow(10, -0.4*(mag-current))}, nil
}
