package core

import (
	"math"
	"sync"
	"sync/atomic"
)

// SersicStep is the quantization step of Sersic indices. Profiles with equal
// quantized index share one SersicInfo; changing the step changes rendered
// galaxy shapes.
const SersicStep = 0.05

const sersicStepsPerUnit = 20

// QuantizeSersicIndex rounds n to the nearest multiple of SersicStep, ties to
// even like the catalog tooling does.
func QuantizeSersicIndex(n float64) float64 {
	return math.RoundToEven(n*sersicStepsPerUnit) / sersicStepsPerUnit
}

// SersicInfo carries the per-index constants of a Sersic profile.
type SersicInfo struct {
	N float64
	// B is the b_n coefficient such that the half-light radius encloses half
	// the flux of exp(-b_n (r/r_e)^(1/n)).
	B float64
}

func newSersicInfo(n float64) *SersicInfo {
	return &SersicInfo{N: n, B: sersicB(n)}
}

// sersicB uses the Ciotti & Bertin (1999) expansion above n = 0.36 and the
// MacArthur et al. (2003) polynomial below it.
func sersicB(n float64) float64 {
	if n <= 0.36 {
		return 0.01945 - 0.8902*n + 10.95*n*n - 19.67*n*n*n + 13.43*n*n*n*n
	}
	n2 := n * n
	return 2*n - 1.0/3 + 4/(405*n) + 46/(25515*n2) + 131/(1148175*n2*n) - 2194697/(30690717750*n2*n2)
}

// SersicCache shares SersicInfo values across galaxies with the same
// quantized index.
type SersicCache struct {
	mu      sync.RWMutex
	entries map[int64]*SersicInfo
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewSersicCache creates an empty cache.
func NewSersicCache() *SersicCache {
	return &SersicCache{entries: make(map[int64]*SersicInfo)}
}

// Get returns the info for a quantized index, computing it on first use.
func (c *SersicCache) Get(n float64) *SersicInfo {
	if c == nil {
		return newSersicInfo(n)
	}
	key := int64(math.RoundToEven(n * sersicStepsPerUnit))

	c.mu.RLock()
	info, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return info
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if info, ok := c.entries[key]; ok {
		c.hits.Add(1)
		return info
	}
	c.misses.Add(1)
	info = newSersicInfo(float64(key) / sersicStepsPerUnit)
	c.entries[key] = info
	return info
}

// Len returns the number of distinct indices cached.
func (c *SersicCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// HitRatio returns hits / (hits + misses), or 0 before any lookup.
func (c *SersicCache) HitRatio() float64 {
	if c == nil {
		return 0
	}
	hits, misses := c.hits.Load(), c.misses.Load()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}
