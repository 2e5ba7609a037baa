package core

import (
	"math"

	"github.com/jchiang87/imSim/model"
)

// WCS maps pixel coordinates to sky coordinates in degrees.
type WCS interface {
	PixelToWorld(x, y float64) (ra, dec float64)
}

// TanWCS is a gnomonic projection about (RA0, Dec0) at pixel (CRPix1, CRPix2).
type TanWCS struct {
	RA0, Dec0      float64 // degrees
	CRPix1, CRPix2 float64
	PixelScale     float64 // arcsec per pixel
	RotationDeg    float64 // angle of +y from north, east positive
}

// PixelToWorld implements WCS.
func (w TanWCS) PixelToWorld(x, y float64) (float64, float64) {
	const arcsecToRad = math.Pi / (180 * 3600)
	u := (x - w.CRPix1) * w.PixelScale * arcsecToRad
	v := (y - w.CRPix2) * w.PixelScale * arcsecToRad
	sinR, cosR := math.Sincos(w.RotationDeg * math.Pi / 180)
	xi := u*cosR - v*sinR
	eta := u*sinR + v*cosR

	ra0 := w.RA0 * math.Pi / 180
	dec0 := w.Dec0 * math.Pi / 180
	rho := math.Hypot(xi, eta)
	if rho == 0 {
		return w.RA0, w.Dec0
	}
	c := math.Atan(rho)
	sinC, cosC := math.Sincos(c)
	sinD0, cosD0 := math.Sincos(dec0)

	dec := math.Asin(cosC*sinD0 + eta*sinC*cosD0/rho)
	ra := ra0 + math.Atan2(xi*sinC, rho*cosD0*cosC-eta*sinD0*sinC)
	return normalizeRA(ra * 180 / math.Pi), dec * 180 / math.Pi
}

func normalizeRA(ra float64) float64 {
	ra = math.Mod(ra, 360)
	if ra < 0 {
		ra += 360
	}
	return ra
}

// RADecLimits returns the sky box covering the image bounds padded by edgePix
// pixels on every side. The box wraps through RA = 0 when needed.
func RADecLimits(wcs WCS, b Bounds, edgePix float64) model.Box {
	x0, x1 := float64(b.XMin)-0.5-edgePix, float64(b.XMax)+0.5+edgePix
	y0, y1 := float64(b.YMin)-0.5-edgePix, float64(b.YMax)+0.5+edgePix
	xm, ym := 0.5*(x0+x1), 0.5*(y0+y1)
	probes := [][2]float64{
		{x0, y0}, {x1, y0}, {x0, y1}, {x1, y1},
		{xm, y0}, {xm, y1}, {x0, ym}, {x1, ym},
	}

	refRA, _ := wcs.PixelToWorld(xm, ym)
	box := model.Box{RAMin: math.Inf(1), RAMax: math.Inf(-1), DecMin: math.Inf(1), DecMax: math.Inf(-1)}
	for _, p := range probes {
		ra, dec := wcs.PixelToWorld(p[0], p[1])
		// Unwrap around the centre so a field straddling RA=0 stays contiguous.
		d := math.Mod(ra-refRA+540, 360) - 180
		ra = refRA + d
		box.RAMin = math.Min(box.RAMin, ra)
		box.RAMax = math.Max(box.RAMax, ra)
		box.DecMin = math.Min(box.DecMin, dec)
		box.DecMax = math.Max(box.DecMax, dec)
	}
	box.RAMin = normalizeRA(box.RAMin)
	box.RAMax = normalizeRA(box.RAMax)
	return box
}
