package core

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// PhotonArray holds photons in structure-of-arrays form. Positions are in
// pixel coordinates, wavelengths in nm and DXDZ/DYDZ are incidence slopes.
type PhotonArray struct {
	X, Y       []float64
	Flux       []float64
	Wavelength []float64
	DXDZ, DYDZ []float64
}

// NewPhotonArray allocates n photons.
func NewPhotonArray(n int) *PhotonArray {
	return &PhotonArray{
		X:          make([]float64, n),
		Y:          make([]float64, n),
		Flux:       make([]float64, n),
		Wavelength: make([]float64, n),
		DXDZ:       make([]float64, n),
		DYDZ:       make([]float64, n),
	}
}

// Len is the photon count.
func (p *PhotonArray) Len() int { return len(p.X) }

// TotalFlux sums the photon fluxes.
func (p *PhotonArray) TotalFlux() float64 { return floats.Sum(p.Flux) }

// SetFlux gives every photon flux f.
func (p *PhotonArray) SetFlux(f float64) {
	for i := range p.Flux {
		p.Flux[i] = f
	}
}

// UniformPositions fills X and then Y so photons cover every pixel of b
// uniformly, from min-0.5 to max+0.5 on each axis.
func UniformPositions(p *PhotonArray, b Bounds, rng *rand.Rand) {
	w, h := float64(b.Width()), float64(b.Height())
	for i := range p.X {
		p.X[i] = rng.Float64()*w + float64(b.XMin) - 0.5
	}
	for i := range p.Y {
		p.Y[i] = rng.Float64()*h + float64(b.YMin) - 0.5
	}
}

// WavelengthSampler draws wavelengths from a bandpass weighted by an SED
// that is flat in photons, i.e. with density proportional to throughput.
type WavelengthSampler struct {
	xs, ys []float64
	cdf    []float64 // cumulative integral at each xs
}

// NewWavelengthSampler tabulates the throughput CDF of bp.
func NewWavelengthSampler(bp *Bandpass) (*WavelengthSampler, error) {
	xs := bp.table.Xs()
	ys := make([]float64, len(xs))
	cdf := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = math.Max(bp.Throughput(x), 0)
		if i > 0 {
			cdf[i] = cdf[i-1] + 0.5*(ys[i]+ys[i-1])*(x-xs[i-1])
		}
	}
	if cdf[len(cdf)-1] <= 0 {
		return nil, fmt.Errorf("%w: bandpass %s has no throughput", ErrBadLookupTable, bp.Name)
	}
	return &WavelengthSampler{xs: xs, ys: ys, cdf: cdf}, nil
}

// Sample maps a uniform deviate u in [0, 1) to a wavelength.
func (s *WavelengthSampler) Sample(u float64) float64 {
	target := u * s.cdf[len(s.cdf)-1]
	i := sort.SearchFloat64s(s.cdf, target)
	if i <= 0 {
		return s.xs[0]
	}
	if i >= len(s.cdf) {
		return s.xs[len(s.xs)-1]
	}
	x0, x1 := s.xs[i-1], s.xs[i]
	y0, y1 := s.ys[i-1], s.ys[i]
	need := target - s.cdf[i-1]
	dx := x1 - x0
	slope := (y1 - y0) / dx
	// Solve y0*t + slope*t^2/2 = need for the offset t within the segment.
	var t float64
	if math.Abs(slope) < 1e-12*math.Max(y0, y1)/dx {
		t = need / y0
	} else {
		disc := y0*y0 + 2*slope*need
		t = (math.Sqrt(math.Max(disc, 0)) - y0) / slope
	}
	return x0 + math.Min(math.Max(t, 0), dx)
}

// ApplyTo assigns a wavelength to every photon.
func (s *WavelengthSampler) ApplyTo(p *PhotonArray, rng *rand.Rand) {
	for i := range p.Wavelength {
		p.Wavelength[i] = s.Sample(rng.Float64())
	}
}

// FRatioAngles draws incidence angles uniformly over the annular pupil of a
// telescope with focal ratio FRatio and linear central obscuration.
type FRatioAngles struct {
	FRatio      float64
	Obscuration float64
}

// Rubin optics: f/1.234 with 0.606 linear obscuration.
var RubinFRatioAngles = FRatioAngles{FRatio: 1.234, Obscuration: 0.606}

// ApplyTo fills DXDZ and DYDZ.
func (f FRatioAngles) ApplyTo(p *PhotonArray, rng *rand.Rand) {
	fov := math.Atan(1 / (2 * f.FRatio))
	obsc := math.Atan(f.Obscuration / (2 * f.FRatio))
	sin2Min := math.Pow(math.Sin(obsc), 2)
	sin2Max := math.Pow(math.Sin(fov), 2)
	for i := range p.DXDZ {
		sinTheta := math.Sqrt(sin2Min + (sin2Max-sin2Min)*rng.Float64())
		tanTheta := sinTheta / math.Sqrt(1-sinTheta*sinTheta)
		sinPhi, cosPhi := math.Sincos(2 * math.Pi * rng.Float64())
		p.DXDZ[i] = tanTheta * sinPhi
		p.DYDZ[i] = tanTheta * cosPhi
	}
}
