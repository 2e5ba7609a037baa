package core

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jchiang87/imSim/internal/logging"
	"github.com/jchiang87/imSim/model"
)

// BackgroundState tracks how far the last AddNoiseAndBackground call got.
type BackgroundState int

const (
	BackgroundIdle BackgroundState = iota
	// BackgroundComputed: sky counts are known for the visit.
	BackgroundComputed
	// BackgroundAccumulated: sky photons were added to the image copy.
	BackgroundAccumulated
	// BackgroundNoised: the noise model was applied.
	BackgroundNoised
)

func (s BackgroundState) String() string {
	switch s {
	case BackgroundIdle:
		return "idle"
	case BackgroundComputed:
		return "computed"
	case BackgroundAccumulated:
		return "accumulated"
	case BackgroundNoised:
		return "noised"
	default:
		return fmt.Sprintf("BackgroundState(%d)", int(s))
	}
}

const (
	// DefaultPhotonsPerPixel trades accuracy of the photon background for speed.
	DefaultPhotonsPerPixel = 100.0
	// DefaultChunkSize bounds the photons held in memory at once.
	DefaultChunkSize = 1_000_000
)

// SkyBackgroundOptions configure a SkyBackground. Zero values select the
// Rubin defaults; AddBackground and AddNoise must be set explicitly.
type SkyBackgroundOptions struct {
	Model    SkyBrightnessModel
	Params   SkyModelParams
	Bandpass *Bandpass

	EffectiveArea   float64 // m^2
	PixelScale      float64 // arcsec/pixel
	PhotonsPerPixel float64
	NRecalcFloor    float64
	ChunkSize       int
	Angles          FRatioAngles

	AddBackground bool
	AddNoise      bool

	Sensor         SensorFactory
	TreeRingCenter [2]float64
	TreeRingFunc   *LookupTable
	Noise          NoiseModel

	Logger  logging.Logger
	Metrics RenderMetrics
}

// SkyBackground adds sky photons and CCD noise to rendered visit images.
type SkyBackground struct {
	obs  model.ObservationMetadata
	opts SkyBackgroundOptions
	rng  *rand.Rand

	mu        sync.Mutex
	state     BackgroundState
	skyCounts float64
}

// NewSkyBackground binds a background generator to one visit. rng is the
// single stream used for photon positions, wavelengths, angles and noise.
func NewSkyBackground(obs model.ObservationMetadata, rng *rand.Rand, opts SkyBackgroundOptions) (*SkyBackground, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: sky background", ErrNoRandomStream)
	}
	if opts.Model == nil {
		return nil, fmt.Errorf("sky background: sky brightness model is nil")
	}
	if opts.Params.ZeroPoints == nil {
		opts.Params = DefaultSkyModelParams()
	}
	if _, ok := opts.Params.ZeroPoints[obs.Band]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBand, obs.Band)
	}
	if opts.AddBackground && opts.Bandpass == nil {
		return nil, fmt.Errorf("sky background: band %q needs a bandpass for photon wavelengths", obs.Band)
	}
	if opts.EffectiveArea <= 0 {
		opts.EffectiveArea = DefaultEffectiveArea
	}
	if opts.PixelScale <= 0 {
		opts.PixelScale = DefaultPixelScale
	}
	if opts.PhotonsPerPixel <= 0 {
		opts.PhotonsPerPixel = DefaultPhotonsPerPixel
	}
	if opts.NRecalcFloor <= 0 {
		opts.NRecalcFloor = DefaultNRecalc
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Angles.FRatio <= 0 {
		opts.Angles = RubinFRatioAngles
	}
	if opts.Sensor == nil {
		opts.Sensor = NewPixelSensor
	}
	if opts.Noise == nil {
		opts.Noise = CCDNoise{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	return &SkyBackground{obs: obs, opts: opts, rng: rng}, nil
}

// State reports the stage reached by the most recent call.
func (b *SkyBackground) State() BackgroundState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// SkyCounts is the per-pixel sky level of the last call in electrons for
// the whole visit.
func (b *SkyBackground) SkyCounts() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.skyCounts
}

func (b *SkyBackground) setState(s BackgroundState) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// VisitSkyCounts returns the sky level in electrons per pixel for the visit.
func (b *SkyBackground) VisitSkyCounts(phot model.PhotParams) (float64, error) {
	mags, err := b.opts.Model.SkyMagnitudes(b.obs.PointingRA, b.obs.PointingDec, MJD(b.obs.Epoch))
	if err != nil {
		return 0, fmt.Errorf("sky magnitudes: %w", err)
	}
	sb, ok := mags[b.obs.Band]
	if !ok {
		return 0, fmt.Errorf("%w: sky model has no %q magnitude", ErrUnknownBand, b.obs.Band)
	}
	perSec, err := SkyCountsPerSec(sb, b.obs.Band, b.opts.Params, b.opts.EffectiveArea, b.opts.PixelScale)
	if err != nil {
		return 0, err
	}
	return perSec * phot.VisitTime(), nil
}

// AddNoiseAndBackground returns a copy of img with the sky background and
// noise added. img itself is not modified.
func (b *SkyBackground) AddNoiseAndBackground(ctx context.Context, img *Image, phot model.PhotParams) (*Image, error) {
	ctx, span := startSpan(ctx, "SkyBackground.AddNoiseAndBackground",
		attribute.String("band", b.obs.Band),
		attribute.Int("npix", img.Bounds.NPix()),
	)
	defer span.End()

	start := time.Now()
	out, err := b.addNoiseAndBackground(ctx, img, phot)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	b.opts.Metrics.BackgroundDuration(time.Since(start).Seconds())
	return out, nil
}

func (b *SkyBackground) addNoiseAndBackground(ctx context.Context, img *Image, phot model.PhotParams) (*Image, error) {
	b.setState(BackgroundIdle)

	skyCounts, err := b.VisitSkyCounts(phot)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.skyCounts = skyCounts
	b.state = BackgroundComputed
	b.mu.Unlock()

	out := img.Copy()
	var skyLevel float64
	if b.opts.AddBackground {
		n, err := b.accumulateSky(ctx, out, skyCounts)
		if err != nil {
			return nil, err
		}
		b.opts.Metrics.SkyPhotons(n)
		b.setState(BackgroundAccumulated)
		// The sky is now on the image, so Poisson noise follows the pixels.
		skyLevel = 0
	} else {
		skyLevel = skyCounts * phot.Gain
	}

	if b.opts.AddNoise {
		p := NoiseParams{SkyLevel: skyLevel, Gain: phot.Gain, ReadNoise: phot.ReadNoise}
		if err := b.opts.Noise.Apply(out, p, b.rng); err != nil {
			return nil, fmt.Errorf("apply noise: %w", err)
		}
		b.setState(BackgroundNoised)
	}

	b.opts.Logger.Debug(ctx, "sky background applied",
		logging.String("band", b.obs.Band),
		logging.Float64("sky_counts", skyCounts),
		logging.Float64("sky_level", skyLevel),
		logging.Any("state", b.State().String()),
	)
	return out, nil
}

// accumulateSky drops npix*PhotonsPerPixel photons on img in chunks and
// returns the number generated.
func (b *SkyBackground) accumulateSky(ctx context.Context, img *Image, skyCounts float64) (int, error) {
	npix := img.Bounds.NPix()
	ppp := b.opts.PhotonsPerPixel
	fluxPerPhoton := skyCounts / ppp
	nphotons := int(math.Round(ppp * float64(npix)))

	waves, err := NewWavelengthSampler(b.opts.Bandpass)
	if err != nil {
		return 0, err
	}
	sensor := b.opts.Sensor(SensorParams{
		NRecalc:        math.Max(b.opts.NRecalcFloor, fluxPerPhoton*float64(npix)),
		TreeRingCenter: b.opts.TreeRingCenter,
		TreeRingFunc:   b.opts.TreeRingFunc,
		Rand:           b.rng,
	})

	for done := 0; done < nphotons; {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		n := min(b.opts.ChunkSize, nphotons-done)
		phot := NewPhotonArray(n)
		UniformPositions(phot, img.Bounds, b.rng)
		phot.SetFlux(fluxPerPhoton)
		waves.ApplyTo(phot, b.rng)
		b.opts.Angles.ApplyTo(phot, b.rng)
		sensor.Accumulate(phot, img)
		done += n
	}
	return nphotons, nil
}
