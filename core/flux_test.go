package core

import (
	"math"
	"testing"
)

func TestMagNormToFlux(t *testing.T) {
	if MagNormToFlux(0) != 1 {
		t.Fatalf("flux(0) = %v, want 1", MagNormToFlux(0))
	}
	if !relEqual(MagNormToFlux(2.5), 0.1, 1e-12) {
		t.Fatalf("flux(2.5) = %v, want 0.1", MagNormToFlux(2.5))
	}
	prev := math.Inf(1)
	for m := -5.0; m <= 40; m += 0.25 {
		f := MagNormToFlux(m)
		if !(f < prev) {
			t.Fatalf("flux not strictly decreasing at magnorm %v", m)
		}
		prev = f
	}
}

func TestTotalPhotons(t *testing.T) {
	got := TotalPhotons(20, RubinCollectingArea, 30)
	want := 1e-8 * RubinCollectingArea * 30
	if !relEqual(got, want, 1e-12) {
		t.Fatalf("TotalPhotons = %v, want %v", got, want)
	}
	if !approxEqual(RubinCollectingArea, 330810.49, 0.01) {
		t.Fatalf("collecting area = %v", RubinCollectingArea)
	}
}

func TestNormalizeFluxAchromatic(t *testing.T) {
	sed, err := NewSEDFromFLambda(flatSED(0).Wavelengths, flatSED(0).FLambda)
	if err != nil {
		t.Fatalf("sed: %v", err)
	}
	bp := mustBandpass(t, "r")
	p, err := NormalizeFlux(NewProfile(PointSource{}), sed, 20, FluxOptions{
		Area: RubinCollectingArea, ExpTime: 30, Bandpass: bp,
	})
	if err != nil {
		t.Fatalf("NormalizeFlux: %v", err)
	}
	want := sed.CalculateFlux(bp) * TotalPhotons(20, RubinCollectingArea, 30)
	if !relEqual(p.Flux, want, 1e-12) {
		t.Fatalf("flux = %v, want %v", p.Flux, want)
	}
	if p.Chromatic() {
		t.Fatalf("achromatic profile carries an SED")
	}
}

func TestNormalizeFluxChromatic(t *testing.T) {
	sed, _ := NewSEDFromFLambda(flatSED(0).Wavelengths, flatSED(0).FLambda)
	p, err := NormalizeFlux(NewProfile(PointSource{}), sed, 20, FluxOptions{
		Area: 1, ExpTime: 1, Chromatic: true,
	})
	if err != nil {
		t.Fatalf("NormalizeFlux: %v", err)
	}
	if !p.Chromatic() || p.SED != sed {
		t.Fatalf("chromatic profile lost its SED")
	}
	if !relEqual(p.Flux, 1e-8, 1e-12) {
		t.Fatalf("flux = %v, want 1e-8", p.Flux)
	}
}

func TestNormalizeFluxNeedsBandpass(t *testing.T) {
	sed, _ := NewSEDFromFLambda(flatSED(0).Wavelengths, flatSED(0).FLambda)
	if _, err := NormalizeFlux(NewProfile(PointSource{}), sed, 20, FluxOptions{Area: 1, ExpTime: 1}); err == nil {
		t.Fatalf("expected error without bandpass")
	}
}

// The flux normalization sets the total flux outright, so a lensing
// magnification applied earlier does not survive it.
func TestNormalizeFluxOverridesMagnification(t *testing.T) {
	sed, _ := NewSEDFromFLambda(flatSED(0).Wavelengths, flatSED(0).FLambda)
	lensed := ApplyLensing(NewProfile(PointSource{}), ReducedShear(0, 0, 0.2))
	p, err := NormalizeFlux(lensed, sed, 20, FluxOptions{Area: 1, ExpTime: 1, Chromatic: true})
	if err != nil {
		t.Fatalf("NormalizeFlux: %v", err)
	}
	if !relEqual(p.Flux, 1e-8, 1e-12) {
		t.Fatalf("flux = %v, want 1e-8", p.Flux)
	}
	if !approxEqual(p.Jacobian.Det(), lensed.Lens.Mu, 1e-12) {
		t.Fatalf("magnified size lost")
	}
}
