package core

import (
	"errors"
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// ErrBelowHorizon is returned by sky models asked about a position that is
// not above the horizon at the requested time.
var ErrBelowHorizon = errors.New("position below horizon")

const (
	// DefaultEffectiveArea is the effective collecting area used for sky
	// counts, in m^2.
	DefaultEffectiveArea = 32.4
	// DefaultPixelScale in arcsec per pixel.
	DefaultPixelScale = 0.2
)

// SkyModelParams are the per-band zero points (electrons/s/m^2 at B0
// mag/arcsec^2) and the reference surface brightness B0.
type SkyModelParams struct {
	B0         float64
	ZeroPoints map[string]float64
}

// DefaultSkyModelParams returns the standard LSST zero-point table.
func DefaultSkyModelParams() SkyModelParams {
	return SkyModelParams{
		B0: 24,
		ZeroPoints: map[string]float64{
			"u": 0.732,
			"g": 2.124,
			"r": 1.681,
			"i": 1.249,
			"z": 0.862,
			"y": 0.452,
		},
	}
}

// SkyCountsPerSec converts a sky surface brightness (mag/arcsec^2) to
// electrons per second per pixel. effectiveArea is in m^2 and pixelScale in
// arcsec.
func SkyCountsPerSec(surfaceBrightness float64, band string, params SkyModelParams, effectiveArea, pixelScale float64) (float64, error) {
	s0, ok := params.ZeroPoints[band]
	if !ok {
		return 0, fmt.Errorf("%w: %q has no sky zero point", ErrUnknownBand, band)
	}
	perArcsec2 := s0 * math.Pow(10, -0.4*(surfaceBrightness-params.B0))
	return perArcsec2 * pixelScale * pixelScale * effectiveArea, nil
}

// SkyBrightnessModel returns sky surface brightness in mag/arcsec^2 per band
// at a sky position (degrees) and time (MJD).
type SkyBrightnessModel interface {
	SkyMagnitudes(ra, dec, mjd float64) (map[string]float64, error)
}

// FixedSkyModel returns the same magnitudes everywhere.
type FixedSkyModel map[string]float64

// SkyMagnitudes implements SkyBrightnessModel.
func (m FixedSkyModel) SkyMagnitudes(_, _, _ float64) (map[string]float64, error) {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out, nil
}

// RubinSite is the Cerro Pachon geodetic position in degrees.
var RubinSite = Site{LatitudeDeg: -30.2446, LongitudeDeg: -70.7494}

// Site is an observatory location, east longitude positive.
type Site struct {
	LatitudeDeg  float64
	LongitudeDeg float64
}

// DarkSkyZenith holds typical dark-time zenith sky brightness at Rubin.
var DarkSkyZenith = map[string]float64{
	"u": 22.99,
	"g": 22.26,
	"r": 21.20,
	"i": 20.48,
	"z": 19.60,
	"y": 18.61,
}

// AirmassSkyModel brightens zenith sky magnitudes by 2.5 log10(airmass) for
// the altitude of the target at the requested time.
type AirmassSkyModel struct {
	Site   Site
	Zenith map[string]float64
}

// NewAirmassSkyModel returns the Rubin dark-sky model.
func NewAirmassSkyModel() *AirmassSkyModel {
	return &AirmassSkyModel{Site: RubinSite, Zenith: DarkSkyZenith}
}

// SkyMagnitudes implements SkyBrightnessModel.
func (m *AirmassSkyModel) SkyMagnitudes(ra, dec, mjd float64) (map[string]float64, error) {
	alt := m.Site.Altitude(ra, dec, mjd)
	if alt <= 0 {
		return nil, fmt.Errorf("%w: ra=%.4f dec=%.4f altitude %.2f deg", ErrBelowHorizon, ra, dec, alt)
	}
	x := Airmass(alt)
	out := make(map[string]float64, len(m.Zenith))
	for band, mag := range m.Zenith {
		out[band] = mag - 2.5*math.Log10(x)
	}
	return out, nil
}

// Airmass uses the plane-parallel approximation sec(z).
func Airmass(altitudeDeg float64) float64 {
	return 1 / math.Sin(altitudeDeg*math.Pi/180)
}

// mjdOffset converts a Julian date to a modified Julian date.
const mjdOffset = 2400000.5

// MJD converts t to a modified Julian date.
func MJD(t time.Time) float64 {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	jd += float64(t.Nanosecond()) / 1e9 / 86400
	return jd - mjdOffset
}

// Altitude returns the altitude in degrees of (ra, dec) seen from s at mjd.
func (s Site) Altitude(ra, dec, mjd float64) float64 {
	const deg = math.Pi / 180
	gmst := satellite.ThetaG_JD(mjd + mjdOffset)
	lst := gmst + s.LongitudeDeg*deg
	ha := lst - ra*deg
	sinLat, cosLat := math.Sincos(s.LatitudeDeg * deg)
	sinDec, cosDec := math.Sincos(dec * deg)
	sinAlt := sinLat*sinDec + cosLat*cosDec*math.Cos(ha)
	return math.Asin(math.Max(-1, math.Min(1, sinAlt))) / deg
}
