package core

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gonum.org/v1/gonum/integrate"
)

const (
	planckErgSec   = 6.62607015e-27 // erg s
	speedOfLightNm = 2.99792458e17  // nm/s
	abFluxDensity  = 3.631e-20      // erg/s/cm^2/Hz, AB magnitude 0
)

// Bandpass is a filter transmission curve in nm with an AB zeropoint.
type Bandpass struct {
	Name      string
	table     *LookupTable
	zeropoint float64
}

// NewBandpass builds a bandpass from a throughput table and computes its AB
// zeropoint, i.e. the magnitude offset at which the AB spectrum reads 0.
func NewBandpass(name string, throughput *LookupTable) *Bandpass {
	bp := &Bandpass{Name: name, table: throughput}
	bp.zeropoint = 2.5 * math.Log10(abPhotonFlux(bp))
	return bp
}

// TopHatBandpass transmits `throughput` between blue and red nm.
func TopHatBandpass(name string, blue, red, throughput float64) (*Bandpass, error) {
	t, err := NewLookupTable([]float64{blue, red}, []float64{throughput, throughput})
	if err != nil {
		return nil, fmt.Errorf("bandpass %s: %w", name, err)
	}
	return NewBandpass(name, t), nil
}

// Throughput returns the transmission at wavelength nm.
func (b *Bandpass) Throughput(nm float64) float64 { return b.table.Eval(nm) }

// BlueLimit is the shortest tabulated wavelength.
func (b *Bandpass) BlueLimit() float64 { return b.table.XMin() }

// RedLimit is the longest tabulated wavelength.
func (b *Bandpass) RedLimit() float64 { return b.table.XMax() }

// Zeropoint is the AB zeropoint in magnitudes.
func (b *Bandpass) Zeropoint() float64 { return b.zeropoint }

// referenceBandpass anchors SED normalization: a 2 nm triangle at 500 nm with
// AB zeropoint. Built once and shared by every SpectrumResolver.
var referenceBandpass = sync.OnceValue(func() *Bandpass {
	t, err := NewLookupTable([]float64{499, 500, 501}, []float64{0, 1, 0})
	if err != nil {
		panic(err)
	}
	return NewBandpass("ref500", t)
})

// ReferenceBandpass returns the process-wide 500 nm normalization bandpass.
func ReferenceBandpass() *Bandpass { return referenceBandpass() }

// abPhotonFlux integrates the AB spectrum, in photons/s/cm^2, through bp.
func abPhotonFlux(bp *Bandpass) float64 {
	grid := integrationGrid(bp.table.Xs(), nil, bp.BlueLimit(), bp.RedLimit(), 16)
	f := make([]float64, len(grid))
	for i, nm := range grid {
		f[i] = abFluxDensity / (planckErgSec * nm) * bp.Throughput(nm)
	}
	return integrate.Simpsons(grid, f)
}

// integrationGrid merges two sorted abscissa sets clipped to [lo, hi] and
// splits every interval into `sub` equal pieces. The product of two linear
// segments is quadratic, so an even split keeps Simpson's rule exact on it.
func integrationGrid(a, b []float64, lo, hi float64, sub int) []float64 {
	knots := []float64{lo, hi}
	for _, x := range a {
		if x > lo && x < hi {
			knots = append(knots, x)
		}
	}
	for _, x := range b {
		if x > lo && x < hi {
			knots = append(knots, x)
		}
	}
	sort.Float64s(knots)

	uniq := knots[:1]
	for _, x := range knots[1:] {
		if x > uniq[len(uniq)-1] {
			uniq = append(uniq, x)
		}
	}

	if sub < 2 {
		sub = 2
	}
	grid := make([]float64, 0, (len(uniq)-1)*sub+1)
	for i := 0; i < len(uniq)-1; i++ {
		x0, x1 := uniq[i], uniq[i+1]
		step := (x1 - x0) / float64(sub)
		for k := 0; k < sub; k++ {
			grid = append(grid, x0+float64(k)*step)
		}
	}
	return append(grid, uniq[len(uniq)-1])
}

// LoadThroughput reads a two-column (wavelength nm, throughput) text table.
// Blank lines and lines starting with '#' are ignored.
func LoadThroughput(path string) (*LookupTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open throughput %q: %w", path, err)
	}
	defer f.Close()
	t, err := ReadThroughput(f)
	if err != nil {
		return nil, fmt.Errorf("read throughput %q: %w", path, err)
	}
	return t, nil
}

// ReadThroughput parses a two-column throughput table from r.
func ReadThroughput(r io.Reader) (*LookupTable, error) {
	var xs, ys []float64
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected 2 columns, got %d", line, len(fields))
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: wavelength: %w", line, err)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: throughput: %w", line, err)
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return NewLookupTable(xs, ys)
}

// lsstTopHats are nominal LSST filter edges in nm, used when no throughput
// files are configured.
var lsstTopHats = map[string][2]float64{
	"u": {320, 400},
	"g": {400, 552},
	"r": {552, 691},
	"i": {691, 818},
	"z": {818, 922},
	"y": {948, 1060},
}

// DefaultBandpasses returns unit-throughput top-hat approximations of the six
// LSST filters.
func DefaultBandpasses() map[string]*Bandpass {
	out := make(map[string]*Bandpass, len(lsstTopHats))
	for name, edges := range lsstTopHats {
		bp, err := TopHatBandpass(name, edges[0], edges[1], 1)
		if err != nil {
			panic(err)
		}
		out[name] = bp
	}
	return out
}
