package core

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"
)

func TestCCDNoisePoissonOnImage(t *testing.T) {
	img := NewImage(NewBounds(100, 100))
	img.Fill(400)
	if err := (CCDNoise{}).Apply(img, NoiseParams{Gain: 1}, testRand(8)); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	mean, std := stat.MeanStdDev(img.Pix, nil)
	// 10^4 pixels: the mean is good to ~0.2 and the spread to ~1%.
	if math.Abs(mean-400) > 1 {
		t.Fatalf("mean = %v, want ~400", mean)
	}
	if math.Abs(std-20) > 1 {
		t.Fatalf("std = %v, want ~20", std)
	}
}

func TestCCDNoiseSkyLevelIsRemoved(t *testing.T) {
	img := NewImage(NewBounds(100, 100))
	gain := 2.0
	if err := (CCDNoise{}).Apply(img, NoiseParams{SkyLevel: 500, Gain: gain}, testRand(9)); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	mean, std := stat.MeanStdDev(img.Pix, nil)
	// 1000 e- of sky: sigma is sqrt(1000) e-, i.e. sqrt(1000)/2 ADU.
	if math.Abs(mean) > 1 {
		t.Fatalf("mean = %v, want ~0", mean)
	}
	if want := math.Sqrt(1000) / gain; math.Abs(std-want) > 0.05*want {
		t.Fatalf("std = %v, want ~%v", std, want)
	}
}

func TestCCDNoiseReadNoiseOnly(t *testing.T) {
	img := NewImage(NewBounds(100, 100))
	if err := (CCDNoise{}).Apply(img, NoiseParams{ReadNoise: 3}, testRand(10)); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	_, std := stat.MeanStdDev(img.Pix, nil)
	if math.Abs(std-3) > 0.15 {
		t.Fatalf("std = %v, want ~3", std)
	}
}

func TestCCDNoiseRequiresStream(t *testing.T) {
	err := (CCDNoise{}).Apply(NewImage(NewBounds(1, 1)), NoiseParams{Gain: 1}, nil)
	if !errors.Is(err, ErrNoRandomStream) {
		t.Fatalf("err = %v, want ErrNoRandomStream", err)
	}
	err = (CCDNoise{}).Apply(NewImage(NewBounds(1, 1)), NoiseParams{Gain: -1}, testRand(1))
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("err = %v, want ErrInvariantViolation", err)
	}
}
