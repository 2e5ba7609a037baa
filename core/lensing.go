package core

import (
	"math"

	"github.com/jchiang87/imSim/model"
)

// LensParams are the weak-lensing observables of a source: reduced shear and
// magnification.
type LensParams struct {
	G1, G2 float64
	Mu     float64
}

// ReducedShear derives (g1, g2, mu) from raw shear and convergence. Nothing
// is clamped: kappa near 1 or (1-kappa)^2 near gamma^2 diverges.
func ReducedShear(gamma1, gamma2, kappa float64) LensParams {
	k := 1 - kappa
	return LensParams{
		G1: gamma1 / k,
		G2: gamma2 / k,
		Mu: 1 / (k*k - (gamma1*gamma1 + gamma2*gamma2)),
	}
}

// InverseLens recovers (gamma1, gamma2, kappa) from lens parameters on the
// kappa < 1 branch.
func InverseLens(p LensParams) (gamma1, gamma2, kappa float64) {
	g2 := p.G1*p.G1 + p.G2*p.G2
	k := math.Sqrt(1 / (p.Mu * (1 - g2)))
	return p.G1 * k, p.G2 * k, 1 - k
}

// LensParamsFrom reads shear_1, shear_2 and convergence from obj.
func LensParamsFrom(obj *model.CatalogObject) (LensParams, error) {
	gamma1, err := catalogValue(obj, "shear_1")
	if err != nil {
		return LensParams{}, err
	}
	gamma2, err := catalogValue(obj, "shear_2")
	if err != nil {
		return LensParams{}, err
	}
	kappa, err := catalogValue(obj, "convergence")
	if err != nil {
		return LensParams{}, err
	}
	return ReducedShear(gamma1, gamma2, kappa), nil
}

// ApplyLensing shears p by (g1, g2) and then magnifies it by mu.
func ApplyLensing(p *GeometricProfile, lens LensParams) *GeometricProfile {
	out := p.clone()
	out.Jacobian = Shear{G1: lens.G1, G2: lens.G2}.Jacobian().Mul(p.Jacobian)
	out = out.Magnified(lens.Mu)
	out.Lens = &lens
	return out
}
