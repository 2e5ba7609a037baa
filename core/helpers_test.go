package core

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/jchiang87/imSim/model"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func relEqual(a, b, rel float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= rel*math.Max(math.Abs(a), math.Abs(b))
}

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// flatSED is a flat f_lambda spectrum covering the optical and NIR.
func flatSED(magnorm float64) model.SEDData {
	return model.SEDData{
		Wavelengths: []float64{300, 500, 700, 900, 1100},
		FLambda:     []float64{1e-17, 1e-17, 1e-17, 1e-17, 1e-17},
		MagNorm:     magnorm,
	}
}

func testGalaxy(id string) *model.CatalogObject {
	return &model.CatalogObject{
		ID:            id,
		Type:          model.ObjectTypeGalaxy,
		RA:            10.0,
		Dec:           -30.0,
		Subcomponents: []string{model.ComponentBulge, model.ComponentDisk, model.ComponentKnots},
		Attributes: map[string]float64{
			"size_bulge_true":         2.0,
			"size_minor_bulge_true":   1.0,
			"size_disk_true":          3.0,
			"size_minor_disk_true":    1.5,
			"position_angle_unlensed": 30,
			"sersic_bulge":            4.0,
			"sersic_disk":             1.02,
			"n_knots":                 12,
			"shear_1":                 0.01,
			"shear_2":                 -0.02,
			"convergence":             0.05,
			"MW_av_lsst_r":            0.12,
			"MW_rv":                   3.1,
		},
		SEDs: map[string]model.SEDData{
			model.ComponentBulge: flatSED(22),
			model.ComponentDisk:  flatSED(21.5),
			model.ComponentKnots: flatSED(24),
		},
	}
}

func testStar(id string) *model.CatalogObject {
	return &model.CatalogObject{
		ID:         id,
		Type:       model.ObjectTypeStar,
		RA:         10.001,
		Dec:        -30.001,
		Attributes: map[string]float64{"MW_av_lsst_r": 0.05, "MW_rv": 3.1},
		SEDs:       map[string]model.SEDData{"": flatSED(18)},
	}
}

func mustBandpass(t *testing.T, band string) *Bandpass {
	t.Helper()
	bp, ok := DefaultBandpasses()[band]
	if !ok {
		t.Fatalf("no default bandpass %q", band)
	}
	return bp
}

// captureMetrics records RenderMetrics calls.
type captureMetrics struct {
	mu         sync.Mutex
	rendered   map[string]int
	skipped    map[string]int
	hitRatio   float64
	skyPhotons int
	durations  int
}

func newCaptureMetrics() *captureMetrics {
	return &captureMetrics{rendered: map[string]int{}, skipped: map[string]int{}}
}

func (m *captureMetrics) ObjectRendered(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rendered[kind]++
}

func (m *captureMetrics) ObjectSkipped(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipped[reason]++
}

func (m *captureMetrics) SersicCacheHitRatio(r float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hitRatio = r
}

func (m *captureMetrics) SkyPhotons(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skyPhotons += n
}

func (m *captureMetrics) BackgroundDuration(float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations++
}
