package core

import (
	"math"
	"testing"

	"github.com/jchiang87/imSim/model"
)

func TestLensingRoundTrip(t *testing.T) {
	cases := [][3]float64{
		{0.01, -0.02, 0.05},
		{0, 0, 0},
		{-0.1, 0.07, -0.2},
		{0.2, 0.1, 0.3},
	}
	for _, c := range cases {
		p := ReducedShear(c[0], c[1], c[2])
		g1, g2, k := InverseLens(p)
		if !approxEqual(g1, c[0], 1e-12) || !approxEqual(g2, c[1], 1e-12) || !approxEqual(k, c[2], 1e-12) {
			t.Fatalf("round trip of %v gave (%v, %v, %v)", c, g1, g2, k)
		}
	}
}

func TestReducedShearNoLensing(t *testing.T) {
	p := ReducedShear(0, 0, 0)
	if p.G1 != 0 || p.G2 != 0 || p.Mu != 1 {
		t.Fatalf("identity lens gave %+v", p)
	}
}

func TestApplyLensingScalesAreaAndFlux(t *testing.T) {
	base := NewProfile(Sersic{N: 1, HalfLightRadius: 1}).Sheared(ShearFromAxisRatio(0.5, 60))
	lens := ReducedShear(0.01, -0.02, 0.05)
	got := ApplyLensing(base, lens)

	if !approxEqual(got.Jacobian.Det(), lens.Mu, 1e-12) {
		t.Fatalf("det = %v, want mu = %v", got.Jacobian.Det(), lens.Mu)
	}
	if !approxEqual(got.Flux, lens.Mu, 1e-12) {
		t.Fatalf("flux = %v, want %v", got.Flux, lens.Mu)
	}
	if got.Lens == nil || *got.Lens != lens {
		t.Fatalf("lens params not recorded: %+v", got.Lens)
	}
	if got.IntrinsicShear == nil || *got.IntrinsicShear != *base.IntrinsicShear {
		t.Fatalf("intrinsic shear changed by lensing")
	}
	if base.Lens != nil || base.Flux != 1 {
		t.Fatalf("ApplyLensing mutated its input")
	}
}

func TestLensParamsFromCatalog(t *testing.T) {
	p, err := LensParamsFrom(testGalaxy("g1"))
	if err != nil {
		t.Fatalf("LensParamsFrom: %v", err)
	}
	want := ReducedShear(0.01, -0.02, 0.05)
	if p != want {
		t.Fatalf("got %+v, want %+v", p, want)
	}

	_, err = LensParamsFrom(&model.CatalogObject{ID: "bare"})
	if err == nil {
		t.Fatalf("expected missing attribute error")
	}
	if math.IsNaN(want.Mu) {
		t.Fatalf("mu is NaN")
	}
}
