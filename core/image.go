package core

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Bounds is an inclusive pixel rectangle; pixel centres sit on integers.
type Bounds struct {
	XMin, XMax int
	YMin, YMax int
}

// NewBounds returns the 1-based bounds of a width x height image.
func NewBounds(width, height int) Bounds {
	return Bounds{XMin: 1, XMax: width, YMin: 1, YMax: height}
}

// Width is the number of columns.
func (b Bounds) Width() int { return b.XMax - b.XMin + 1 }

// Height is the number of rows.
func (b Bounds) Height() int { return b.YMax - b.YMin + 1 }

// NPix is the pixel count.
func (b Bounds) NPix() int {
	if b.XMax < b.XMin || b.YMax < b.YMin {
		return 0
	}
	return b.Width() * b.Height()
}

// Image is a float64 pixel grid addressed in Bounds coordinates.
type Image struct {
	Bounds Bounds
	Pix    []float64 // row-major, YMin row first
}

// NewImage allocates a zero image.
func NewImage(b Bounds) *Image {
	return &Image{Bounds: b, Pix: make([]float64, b.NPix())}
}

func (im *Image) offset(x, y int) (int, bool) {
	b := im.Bounds
	if x < b.XMin || x > b.XMax || y < b.YMin || y > b.YMax {
		return 0, false
	}
	return (y-b.YMin)*b.Width() + (x - b.XMin), true
}

// At returns the pixel value, or 0 outside the bounds.
func (im *Image) At(x, y int) float64 {
	i, ok := im.offset(x, y)
	if !ok {
		return 0
	}
	return im.Pix[i]
}

// Set stores v at (x, y).
func (im *Image) Set(x, y int, v float64) error {
	i, ok := im.offset(x, y)
	if !ok {
		return fmt.Errorf("pixel (%d,%d) outside %+v", x, y, im.Bounds)
	}
	im.Pix[i] = v
	return nil
}

// Add accumulates v at (x, y) and reports whether the pixel exists.
func (im *Image) Add(x, y int, v float64) bool {
	i, ok := im.offset(x, y)
	if ok {
		im.Pix[i] += v
	}
	return ok
}

// Fill sets every pixel to v.
func (im *Image) Fill(v float64) {
	for i := range im.Pix {
		im.Pix[i] = v
	}
}

// Copy returns a deep copy.
func (im *Image) Copy() *Image {
	out := &Image{Bounds: im.Bounds, Pix: make([]float64, len(im.Pix))}
	copy(out.Pix, im.Pix)
	return out
}

// Sum returns the total of all pixels.
func (im *Image) Sum() float64 { return floats.Sum(im.Pix) }
