// Package imageio writes rendered visit images: a stretched PNG preview for
// eyeballing and a zstd-compressed float32 raw dump that round-trips.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/jchiang87/imSim/core"
)

// ErrEmptyImage is returned when an image has no pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// PreviewOptions control the asinh stretch of WritePNG.
type PreviewOptions struct {
	// Softening sets where the stretch turns from linear to logarithmic.
	// Zero uses the pixel standard deviation.
	Softening float64
}

// WritePNG writes a 16-bit grayscale preview of img with an asinh stretch
// between the image minimum and maximum. Row YMax is written first so that
// +y points up.
func WritePNG(w io.Writer, img *core.Image, opts PreviewOptions) error {
	if img == nil || len(img.Pix) == 0 {
		return ErrEmptyImage
	}
	lo, hi := floats.Min(img.Pix), floats.Max(img.Pix)
	soft := opts.Softening
	if soft <= 0 {
		_, soft = stat.MeanStdDev(img.Pix, nil)
	}
	if soft <= 0 || math.IsNaN(soft) {
		soft = 1
	}
	norm := math.Asinh((hi - lo) / soft)

	toU16 := func(v float64) uint16 {
		if norm == 0 {
			return 0
		}
		n := math.Asinh((v-lo)/soft) / norm
		x := math.Round(n * 65535)
		if x < 0 {
			return 0
		}
		if x > 65535 {
			return 65535
		}
		return uint16(x)
	}

	b := img.Bounds
	width, height := b.Width(), b.Height()
	out := image.NewGray16(image.Rect(0, 0, width, height))
	for j := 0; j < height; j++ {
		row := out.Pix[(height-1-j)*out.Stride:]
		for i := 0; i < width; i++ {
			v := toU16(img.Pix[j*width+i])
			// Gray16 stores big-endian samples.
			row[2*i] = uint8(v >> 8)
			row[2*i+1] = uint8(v)
		}
	}

	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(w, out); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
