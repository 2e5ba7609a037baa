package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineCollector bundles Prometheus metrics for catalog rendering and sky
// background synthesis. It satisfies core.RenderMetrics.
type PipelineCollector struct {
	gatherer prometheus.Gatherer

	ObjectsRendered     *prometheus.CounterVec
	ObjectsSkipped      *prometheus.CounterVec
	SkyPhotonsTotal     prometheus.Counter
	BackgroundDurations prometheus.Histogram
	SersicCacheRatio    prometheus.Gauge
	CatalogObjects      prometheus.Gauge
	StageDurations      *prometheus.HistogramVec
}

// NewPipelineCollector registers pipeline metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewPipelineCollector(reg prometheus.Registerer) (*PipelineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	rendered, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "imsim_objects_rendered_total",
		Help: "Renderable objects produced, labeled by component kind.",
	}, []string{"kind"}), "imsim_objects_rendered_total")
	if err != nil {
		return nil, err
	}

	skipped, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "imsim_objects_skipped_total",
		Help: "Catalog entries that produced no renderable object, labeled by reason.",
	}, []string{"reason"}), "imsim_objects_skipped_total")
	if err != nil {
		return nil, err
	}

	photons, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "imsim_sky_photons_total",
		Help: "Sky background photons generated and accumulated on sensors.",
	}), "imsim_sky_photons_total")
	if err != nil {
		return nil, err
	}

	background, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "imsim_background_duration_seconds",
		Help:    "Duration of AddNoiseAndBackground calls.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}), "imsim_background_duration_seconds")
	if err != nil {
		return nil, err
	}

	cacheRatio, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "imsim_sersic_cache_hit_ratio",
		Help: "Hit ratio of the quantized Sersic profile cache.",
	}), "imsim_sersic_cache_hit_ratio")
	if err != nil {
		return nil, err
	}

	objects, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "imsim_catalog_objects",
		Help: "Objects currently held in the loaded catalog store.",
	}), "imsim_catalog_objects")
	if err != nil {
		return nil, err
	}

	stages, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "imsim_stage_duration_seconds",
		Help:    "Wall time of CLI pipeline stages.",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
	}, []string{"stage"}), "imsim_stage_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &PipelineCollector{
		gatherer:            gatherer,
		ObjectsRendered:     rendered,
		ObjectsSkipped:      skipped,
		SkyPhotonsTotal:     photons,
		BackgroundDurations: background,
		SersicCacheRatio:    cacheRatio,
		CatalogObjects:      objects,
		StageDurations:      stages,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *PipelineCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PipelineCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (c *PipelineCollector) ObjectRendered(kind string) {
	if c == nil || c.ObjectsRendered == nil {
		return
	}
	c.ObjectsRendered.WithLabelValues(kind).Inc()
}

func (c *PipelineCollector) ObjectSkipped(reason string) {
	if c == nil || c.ObjectsSkipped == nil {
		return
	}
	c.ObjectsSkipped.WithLabelValues(reason).Inc()
}

// SersicCacheHitRatio sets the cache hit ratio, clamped to [0, 1].
func (c *PipelineCollector) SersicCacheHitRatio(ratio float64) {
	if c == nil || c.SersicCacheRatio == nil {
		return
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	c.SersicCacheRatio.Set(ratio)
}

func (c *PipelineCollector) SkyPhotons(n int) {
	if c == nil || c.SkyPhotonsTotal == nil || n <= 0 {
		return
	}
	c.SkyPhotonsTotal.Add(float64(n))
}

func (c *PipelineCollector) BackgroundDuration(seconds float64) {
	if c == nil || c.BackgroundDurations == nil {
		return
	}
	c.BackgroundDurations.Observe(seconds)
}

// SetCatalogObjects updates the catalog size gauge.
func (c *PipelineCollector) SetCatalogObjects(n int) {
	if c == nil || c.CatalogObjects == nil {
		return
	}
	c.CatalogObjects.Set(float64(n))
}

// ObserveStage records how long a named pipeline stage took.
func (c *PipelineCollector) ObserveStage(stage string, d time.Duration) {
	if c == nil || c.StageDurations == nil {
		return
	}
	c.StageDurations.WithLabelValues(stage).Observe(d.Seconds())
}
