package core

import (
	"math"
	"math/rand/v2"
)

// DefaultNRecalc is the minimum number of electrons between pixel boundary
// updates of a sensor.
const DefaultNRecalc = 10000

// Sensor accumulates photons onto an image.
type Sensor interface {
	// Accumulate adds the photons' flux to img and returns the flux that
	// landed on it.
	Accumulate(p *PhotonArray, img *Image) float64
}

// SensorParams configure a Sensor for one accumulation pass.
type SensorParams struct {
	// NRecalc is the flux between boundary updates.
	NRecalc float64
	// TreeRingCenter is the tree-ring centre in pixel coordinates. It may lie
	// off the image.
	TreeRingCenter [2]float64
	// TreeRingFunc maps radius from the centre (pixels) to a radial
	// displacement (pixels). Nil disables tree rings.
	TreeRingFunc *LookupTable
	Rand         *rand.Rand
}

// SensorFactory builds the sensor for one accumulation pass.
type SensorFactory func(SensorParams) Sensor

// NewPixelSensor is the default SensorFactory.
func NewPixelSensor(p SensorParams) Sensor {
	return &PixelSensor{params: p}
}

// PixelSensor bins photons into the pixel containing them, after shifting
// them radially by the tree-ring displacement when one is configured.
type PixelSensor struct {
	params  SensorParams
	pending float64
	recalcs int
}

// Params returns the configuration the sensor was built with.
func (s *PixelSensor) Params() SensorParams { return s.params }

// Recalculations counts how many times accumulated flux crossed NRecalc.
func (s *PixelSensor) Recalculations() int { return s.recalcs }

// Accumulate implements Sensor.
func (s *PixelSensor) Accumulate(p *PhotonArray, img *Image) float64 {
	added := 0.0
	for i := range p.X {
		x, y := s.displace(p.X[i], p.Y[i])
		ix := int(math.Floor(x + 0.5))
		iy := int(math.Floor(y + 0.5))
		if img.Add(ix, iy, p.Flux[i]) {
			added += p.Flux[i]
		}
		s.pending += p.Flux[i]
		if s.params.NRecalc > 0 && s.pending >= s.params.NRecalc {
			s.pending = 0
			s.recalcs++
		}
	}
	return added
}

func (s *PixelSensor) displace(x, y float64) (float64, float64) {
	if s.params.TreeRingFunc == nil {
		return x, y
	}
	dx := x - s.params.TreeRingCenter[0]
	dy := y - s.params.TreeRingCenter[1]
	r := math.Hypot(dx, dy)
	if r == 0 {
		return x, y
	}
	shift := s.params.TreeRingFunc.Eval(r)
	return x + shift*dx/r, y + shift*dy/r
}
