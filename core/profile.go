package core

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/jchiang87/imSim/model"
)

// ShapeKind enumerates the light-profile variants.
type ShapeKind int

const (
	ShapePointSource ShapeKind = iota
	ShapeSersic
	ShapeRandomKnots
)

func (k ShapeKind) String() string {
	switch k {
	case ShapePointSource:
		return "point"
	case ShapeSersic:
		return "sersic"
	case ShapeRandomKnots:
		return "knots"
	default:
		return "unknown"
	}
}

// Shape is the untransformed, unit-flux light distribution of a profile.
type Shape interface {
	Kind() ShapeKind
}

// PointSource is a delta function.
type PointSource struct{}

func (PointSource) Kind() ShapeKind { return ShapePointSource }

// Sersic is a Sersic profile with quantized index.
type Sersic struct {
	N               float64
	HalfLightRadius float64 // arcsec
	Info            *SersicInfo
}

func (Sersic) Kind() ShapeKind { return ShapeSersic }

// RandomKnots is a clumpy profile of equal-flux point sources.
type RandomKnots struct {
	NPoints         int
	HalfLightRadius float64 // arcsec
	// Positions of the knots in arcsec relative to the profile centre, before
	// any shear or lensing.
	Positions [][2]float64
}

func (RandomKnots) Kind() ShapeKind { return ShapeRandomKnots }

// GeometricProfile is a shape with its accumulated distortions and flux. It
// is the renderable object handed to the image driver.
type GeometricProfile struct {
	Shape Shape
	// IntrinsicShear is nil for profiles that were never sheared.
	IntrinsicShear *Shear
	// Lens is nil for profiles without a lensing distortion.
	Lens *LensParams
	// Jacobian maps the unit shape to the sky plane.
	Jacobian Jacobian
	Flux     float64
	// SED is set for chromatic profiles; the profile's flux is then the
	// multiplier of the SED rather than a photon count.
	SED *SED
}

// NewProfile wraps a shape with unit flux and no distortion.
func NewProfile(shape Shape) *GeometricProfile {
	return &GeometricProfile{Shape: shape, Jacobian: IdentityJacobian, Flux: 1}
}

func (p *GeometricProfile) clone() *GeometricProfile {
	out := *p
	return &out
}

// Sheared applies s after the existing distortion.
func (p *GeometricProfile) Sheared(s Shear) *GeometricProfile {
	out := p.clone()
	out.Jacobian = s.Jacobian().Mul(p.Jacobian)
	if out.IntrinsicShear == nil {
		out.IntrinsicShear = &s
	}
	return out
}

// Magnified scales linear size by sqrt(mu) and flux by mu.
func (p *GeometricProfile) Magnified(mu float64) *GeometricProfile {
	out := p.clone()
	out.Jacobian = p.Jacobian.Scale(math.Sqrt(mu))
	out.Flux = p.Flux * mu
	return out
}

// WithFlux returns a copy whose total flux is f.
func (p *GeometricProfile) WithFlux(f float64) *GeometricProfile {
	out := p.clone()
	out.Flux = f
	return out
}

// WithSED returns a chromatic copy carrying sed.
func (p *GeometricProfile) WithSED(sed *SED) *GeometricProfile {
	out := p.clone()
	out.SED = sed
	return out
}

// Chromatic reports whether the profile carries an SED.
func (p *GeometricProfile) Chromatic() bool { return p.SED != nil }

// renderKind is the closed set of object/component pairs the pipeline can draw.
type renderKind int

const (
	kindUnsupported renderKind = iota
	kindStar
	kindGalaxyBulge
	kindGalaxyDisk
	kindGalaxyKnots
)

func classify(obj *model.CatalogObject, component string) renderKind {
	switch obj.Type {
	case model.ObjectTypeStar:
		return kindStar
	case model.ObjectTypeGalaxy:
		switch component {
		case model.ComponentBulge:
			return kindGalaxyBulge
		case model.ComponentDisk:
			return kindGalaxyDisk
		case model.ComponentKnots:
			return kindGalaxyKnots
		}
	}
	return kindUnsupported
}

// ProfileBuilder maps catalog shape parameters to pre-lensing profiles.
type ProfileBuilder struct {
	// FlipG2 selects beta = 90 - pa instead of 90 + pa.
	FlipG2 bool
	Cache  *SersicCache
}

// Build returns the intrinsic (sheared, unlensed) profile of obj's component.
// rng is consumed only for knots.
func (b ProfileBuilder) Build(obj *model.CatalogObject, component string, rng *rand.Rand) (*GeometricProfile, error) {
	kind := classify(obj, component)
	switch kind {
	case kindStar:
		return NewProfile(PointSource{}), nil
	case kindGalaxyBulge, kindGalaxyDisk, kindGalaxyKnots:
		return b.buildGalaxy(obj, component, kind, rng)
	default:
		return nil, fmt.Errorf("%w: object %s type %q component %q", ErrUnsupportedObjectKind, obj.ID, obj.Type, component)
	}
}

// GalaxyGeometry is the derived size and orientation of a galaxy component.
type GalaxyGeometry struct {
	A, B            float64 // major and minor axis sizes, arcsec
	HalfLightRadius float64 // arcsec
	BetaDeg         float64 // position angle of the major axis
}

// AxisRatio is b/a.
func (g GalaxyGeometry) AxisRatio() float64 { return g.B / g.A }

// Geometry reads a galaxy component's axes and position angle. Knots share
// the disk's shape.
func (b ProfileBuilder) Geometry(obj *model.CatalogObject, component string) (GalaxyGeometry, error) {
	shapeOf := component
	if shapeOf == model.ComponentKnots {
		shapeOf = model.ComponentDisk
	}
	a, err := catalogValue(obj, "size_"+shapeOf+"_true")
	if err != nil {
		return GalaxyGeometry{}, err
	}
	minor, err := catalogValue(obj, "size_minor_"+shapeOf+"_true")
	if err != nil {
		return GalaxyGeometry{}, err
	}
	if a < minor {
		return GalaxyGeometry{}, fmt.Errorf("%w: object %s %s minor axis %g exceeds major axis %g",
			ErrInvariantViolation, obj.ID, shapeOf, minor, a)
	}
	pa, err := catalogValue(obj, "position_angle_unlensed")
	if err != nil {
		return GalaxyGeometry{}, err
	}
	beta := 90 + pa
	if b.FlipG2 {
		beta = 90 - pa
	}
	return GalaxyGeometry{
		A: a,
		B: minor,
		// TODO: validate against hlr = a once the size convention of the
		// catalog is confirmed.
		HalfLightRadius: math.Sqrt(a * minor),
		BetaDeg:         beta,
	}, nil
}

func (b ProfileBuilder) buildGalaxy(obj *model.CatalogObject, component string, kind renderKind, rng *rand.Rand) (*GeometricProfile, error) {
	geom, err := b.Geometry(obj, component)
	if err != nil {
		return nil, err
	}

	var shape Shape
	if kind == kindGalaxyKnots {
		n, err := catalogValue(obj, "n_knots")
		if err != nil {
			return nil, err
		}
		npoints := int(n)
		if npoints <= 0 {
			return nil, fmt.Errorf("%w: object %s has n_knots = %g", ErrInvariantViolation, obj.ID, n)
		}
		if rng == nil {
			return nil, fmt.Errorf("%w: knots of object %s", ErrNoRandomStream, obj.ID)
		}
		shape = NewRandomKnots(npoints, geom.HalfLightRadius, rng)
	} else {
		raw, err := catalogValue(obj, "sersic_"+component)
		if err != nil {
			return nil, err
		}
		n := QuantizeSersicIndex(raw)
		if n <= 0 {
			return nil, fmt.Errorf("%w: object %s sersic_%s = %g", ErrInvariantViolation, obj.ID, component, raw)
		}
		shape = Sersic{N: n, HalfLightRadius: geom.HalfLightRadius, Info: b.Cache.Get(n)}
	}

	return NewProfile(shape).Sheared(ShearFromAxisRatio(geom.AxisRatio(), geom.BetaDeg)), nil
}

// gaussianSigmaPerHLR converts a Gaussian half-light radius to its sigma.
var gaussianSigmaPerHLR = 1 / math.Sqrt(2*math.Ln2)

// NewRandomKnots scatters npoints knots following a Gaussian of the given
// half-light radius. Draws 2*npoints normals from rng, x then y per knot.
func NewRandomKnots(npoints int, hlr float64, rng *rand.Rand) RandomKnots {
	sigma := hlr * gaussianSigmaPerHLR
	pos := make([][2]float64, npoints)
	for i := range pos {
		pos[i][0] = sigma * rng.NormFloat64()
		pos[i][1] = sigma * rng.NormFloat64()
	}
	return RandomKnots{NPoints: npoints, HalfLightRadius: hlr, Positions: pos}
}

func catalogValue(obj *model.CatalogObject, name string) (float64, error) {
	v, ok := obj.NativeAttribute(name)
	if !ok {
		return 0, fmt.Errorf("%w: object %s has no %q", ErrMissingAttribute, obj.ID, name)
	}
	return v, nil
}
