package core

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jchiang87/imSim/core"

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// RenderMetrics receives pipeline counters. observability.PipelineCollector
// satisfies it; a nil RenderMetrics records nothing.
type RenderMetrics interface {
	ObjectRendered(kind string)
	ObjectSkipped(reason string)
	SersicCacheHitRatio(ratio float64)
	SkyPhotons(n int)
	BackgroundDuration(seconds float64)
}

type noopMetrics struct{}

func (noopMetrics) ObjectRendered(string)       {}
func (noopMetrics) ObjectSkipped(string)        {}
func (noopMetrics) SersicCacheHitRatio(float64) {}
func (noopMetrics) SkyPhotons(int)              {}
func (noopMetrics) BackgroundDuration(float64)  {}
