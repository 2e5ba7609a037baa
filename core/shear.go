package core

import "math"

// Shear is a reduced shear (g1, g2).
type Shear struct {
	G1, G2 float64
}

// ShearFromAxisRatio builds the shear that turns a circle into an ellipse of
// axis ratio q = b/a with major axis at betaDeg degrees.
func ShearFromAxisRatio(q, betaDeg float64) Shear {
	g := (1 - q) / (1 + q)
	twoBeta := 2 * betaDeg * math.Pi / 180
	return Shear{G1: g * math.Cos(twoBeta), G2: g * math.Sin(twoBeta)}
}

// G is the shear magnitude.
func (s Shear) G() float64 { return math.Hypot(s.G1, s.G2) }

// AxisRatio returns q = b/a.
func (s Shear) AxisRatio() float64 {
	g := s.G()
	return (1 - g) / (1 + g)
}

// BetaDeg is the position angle of the major axis in degrees, in (-90, 90].
func (s Shear) BetaDeg() float64 {
	return 0.5 * math.Atan2(s.G2, s.G1) * 180 / math.Pi
}

// Jacobian returns the area-preserving distortion matrix of the shear.
func (s Shear) Jacobian() Jacobian {
	f := 1 / math.Sqrt(1-s.G1*s.G1-s.G2*s.G2)
	return Jacobian{
		f * (1 + s.G1), f * s.G2,
		f * s.G2, f * (1 - s.G1),
	}
}

// Jacobian is a row-major 2x2 linear map of the image plane.
type Jacobian [4]float64

// IdentityJacobian leaves profiles unchanged.
var IdentityJacobian = Jacobian{1, 0, 0, 1}

// Mul returns j·k, i.e. k applied first.
func (j Jacobian) Mul(k Jacobian) Jacobian {
	return Jacobian{
		j[0]*k[0] + j[1]*k[2], j[0]*k[1] + j[1]*k[3],
		j[2]*k[0] + j[3]*k[2], j[2]*k[1] + j[3]*k[3],
	}
}

// Scale multiplies every element by s.
func (j Jacobian) Scale(s float64) Jacobian {
	return Jacobian{j[0] * s, j[1] * s, j[2] * s, j[3] * s}
}

// Det is the determinant, the area magnification of the map.
func (j Jacobian) Det() float64 { return j[0]*j[3] - j[1]*j[2] }

// Apply maps (x, y).
func (j Jacobian) Apply(x, y float64) (float64, float64) {
	return j[0]*x + j[1]*y, j[2]*x + j[3]*y
}
