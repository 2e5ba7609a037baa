package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jchiang87/imSim/internal/logging"
	"github.com/jchiang87/imSim/model"
)

// DefaultExpTime is the exposure time assumed when RenderOptions leaves it
// unset, in seconds.
const DefaultExpTime = 30.0

// DefaultEdgePix pads the image when querying the catalog region.
const DefaultEdgePix = 100.0

// CatalogStore is the read-only catalog collaborator.
type CatalogStore interface {
	ObjectsInRegion(box model.Box, types ...model.ObjectType) []*model.CatalogObject
}

// SkyCatalogOptions configures a SkyCatalog.
type SkyCatalogOptions struct {
	FlipG2 bool
	// CollectingArea in cm^2; zero selects RubinCollectingArea.
	CollectingArea float64
	Logger         logging.Logger
	Metrics        RenderMetrics
}

// RegionQuery selects catalog objects overlapping an image.
type RegionQuery struct {
	WCS         WCS
	Bounds      Bounds
	EdgePix     float64
	ObjectTypes []model.ObjectType // defaults to galaxies only
}

// Dust holds extinction parameters. Internal extinction is already folded
// into catalog SEDs, so only the Milky Way term is non-trivial.
type Dust struct {
	InternalAv, InternalRv float64
	GalacticAv, GalacticRv float64
}

// RenderOptions are the per-call inputs of RenderableObject.
type RenderOptions struct {
	Bandpass  *Bandpass
	ExpTime   float64
	Chromatic bool
	Rand      *rand.Rand
}

// SkyCatalog exposes catalog objects through a dense subcomponent index.
type SkyCatalog struct {
	objects  []*model.CatalogObject
	index    *SubcomponentIndex
	spectra  *SpectrumResolver
	profiles ProfileBuilder
	area     float64
	log      logging.Logger
	metrics  RenderMetrics
}

// NewSkyCatalog indexes objects that were already selected by the caller.
func NewSkyCatalog(objects []*model.CatalogObject, opts SkyCatalogOptions) *SkyCatalog {
	area := opts.CollectingArea
	if area <= 0 {
		area = RubinCollectingArea
	}
	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}
	var metrics RenderMetrics = noopMetrics{}
	if opts.Metrics != nil {
		metrics = opts.Metrics
	}
	return &SkyCatalog{
		objects:  objects,
		index:    BuildSubcomponentIndex(objects),
		spectra:  NewSpectrumResolver(),
		profiles: ProfileBuilder{FlipG2: opts.FlipG2, Cache: NewSersicCache()},
		area:     area,
		log:      log,
		metrics:  metrics,
	}
}

// OpenSkyCatalog queries store for the objects overlapping the padded image
// region and indexes them.
func OpenSkyCatalog(ctx context.Context, store CatalogStore, q RegionQuery, opts SkyCatalogOptions) (*SkyCatalog, error) {
	if store == nil {
		return nil, errors.New("OpenSkyCatalog: store is nil")
	}
	if q.WCS == nil {
		return nil, errors.New("OpenSkyCatalog: wcs is nil")
	}
	types := q.ObjectTypes
	if len(types) == 0 {
		types = []model.ObjectType{model.ObjectTypeGalaxy}
	}
	box := RADecLimits(q.WCS, q.Bounds, q.EdgePix)
	objects := store.ObjectsInRegion(box, types...)

	cat := NewSkyCatalog(objects, opts)
	cat.log.Info(ctx, "sky catalog opened",
		logging.Int("objects", len(objects)),
		logging.Int("subcomponents", cat.NObjects()),
		logging.Any("region", box),
	)
	return cat, nil
}

// NObjects is the number of renderable subcomponents.
func (c *SkyCatalog) NObjects() int { return c.index.Count() }

// SersicCache exposes the shared Sersic cache.
func (c *SkyCatalog) SersicCache() *SersicCache { return c.profiles.Cache }

func (c *SkyCatalog) lookup(index int) (*model.CatalogObject, string, error) {
	key, err := c.index.Resolve(index)
	if err != nil {
		return nil, "", err
	}
	return c.objects[key.ObjectIndex], key.Component, nil
}

// Object returns the catalog object behind index.
func (c *SkyCatalog) Object(index int) (*model.CatalogObject, error) {
	obj, _, err := c.lookup(index)
	return obj, err
}

// Key returns the subcomponent key behind index.
func (c *SkyCatalog) Key(index int) (SubcomponentKey, error) {
	return c.index.Resolve(index)
}

// WorldPosition returns (ra, dec) in degrees.
func (c *SkyCatalog) WorldPosition(index int) (float64, float64, error) {
	obj, _, err := c.lookup(index)
	if err != nil {
		return 0, 0, err
	}
	return obj.RA, obj.Dec, nil
}

// SpectrumInfo returns the magnitude-0 normalized SED and magnorm.
func (c *SkyCatalog) SpectrumInfo(index int) (*SED, float64, error) {
	obj, component, err := c.lookup(index)
	if err != nil {
		return nil, 0, err
	}
	return c.spectra.Resolve(obj, component)
}

// LensingParams returns the reduced shear and magnification at the object.
func (c *SkyCatalog) LensingParams(index int) (LensParams, error) {
	obj, _, err := c.lookup(index)
	if err != nil {
		return LensParams{}, err
	}
	return LensParamsFrom(obj)
}

// DustParams returns extinction parameters for the given band.
func (c *SkyCatalog) DustParams(index int, band string) (Dust, error) {
	obj, _, err := c.lookup(index)
	if err != nil {
		return Dust{}, err
	}
	av, err := catalogValue(obj, "MW_av_lsst_"+band)
	if err != nil {
		return Dust{}, err
	}
	rv, err := catalogValue(obj, "MW_rv")
	if err != nil {
		return Dust{}, err
	}
	return Dust{InternalAv: 0, InternalRv: 1, GalacticAv: av, GalacticRv: rv}, nil
}

// RenderableObject builds the flux-scaled profile of index. It returns nil
// and no error for sources with no physical flux.
func (c *SkyCatalog) RenderableObject(ctx context.Context, index int, opts RenderOptions) (*GeometricProfile, error) {
	ctx, span := startSpan(ctx, "SkyCatalog.RenderableObject", attribute.Int("index", index))
	defer span.End()

	p, err := c.renderableObject(ctx, index, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return p, err
}

func (c *SkyCatalog) renderableObject(ctx context.Context, index int, opts RenderOptions) (*GeometricProfile, error) {
	obj, component, err := c.lookup(index)
	if err != nil {
		return nil, err
	}
	sed, magnorm, err := c.spectra.Resolve(obj, component)
	if err != nil {
		return nil, err
	}
	if sed == nil || magnorm >= InvisibleMagNorm {
		c.metrics.ObjectSkipped("faint")
		c.log.Debug(ctx, "skipping non-physical magnorm",
			logging.String("object", obj.ID),
			logging.String("component", component),
			logging.Float64("magnorm", magnorm),
		)
		return nil, nil
	}

	p, err := c.profiles.Build(obj, component, opts.Rand)
	if err != nil {
		if errors.Is(err, ErrUnsupportedObjectKind) {
			c.metrics.ObjectSkipped("unsupported")
		}
		return nil, err
	}
	if classify(obj, component) != kindStar {
		lens, err := LensParamsFrom(obj)
		if err != nil {
			return nil, err
		}
		p = ApplyLensing(p, lens)
	}

	expTime := opts.ExpTime
	if expTime <= 0 {
		expTime = DefaultExpTime
	}
	p, err = NormalizeFlux(p, sed, magnorm, FluxOptions{
		Area:      c.area,
		ExpTime:   expTime,
		Chromatic: opts.Chromatic,
		Bandpass:  opts.Bandpass,
	})
	if err != nil {
		return nil, fmt.Errorf("object %s component %q: %w", obj.ID, component, err)
	}

	c.metrics.ObjectRendered(p.Shape.Kind().String())
	c.metrics.SersicCacheHitRatio(c.profiles.Cache.HitRatio())
	return p, nil
}
