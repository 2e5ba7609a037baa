package core

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// NoiseParams describe the noise of one image.
type NoiseParams struct {
	// SkyLevel is the background already subtracted from the image, in ADU.
	SkyLevel  float64
	Gain      float64 // e-/ADU
	ReadNoise float64 // e-
}

// NoiseModel perturbs an image in place.
type NoiseModel interface {
	Apply(img *Image, p NoiseParams, rng *rand.Rand) error
}

// CCDNoise adds Poisson noise in electrons from the image plus sky level,
// then Gaussian read noise. The sky level itself is not left on the image.
type CCDNoise struct{}

// Apply implements NoiseModel.
func (CCDNoise) Apply(img *Image, p NoiseParams, rng *rand.Rand) error {
	if rng == nil {
		return fmt.Errorf("%w: CCD noise", ErrNoRandomStream)
	}
	if p.Gain < 0 || p.ReadNoise < 0 {
		return fmt.Errorf("%w: gain %g read noise %g", ErrInvariantViolation, p.Gain, p.ReadNoise)
	}

	for i, v := range img.Pix {
		level := v + p.SkyLevel
		if p.Gain > 0 {
			electrons := level * p.Gain
			if electrons > 0 {
				electrons = distuv.Poisson{Lambda: electrons, Src: rng}.Rand()
			} else {
				electrons = 0
			}
			level = electrons / p.Gain
		}
		img.Pix[i] = level - p.SkyLevel
	}

	if p.ReadNoise > 0 {
		sigma := p.ReadNoise
		if p.Gain > 0 {
			sigma /= p.Gain
		}
		gauss := distuv.Normal{Mu: 0, Sigma: sigma, Src: rng}
		for i := range img.Pix {
			img.Pix[i] += gauss.Rand()
		}
	}
	return nil
}
