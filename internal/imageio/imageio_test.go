package imageio

import (
	"bytes"
	"errors"
	"image/png"
	"testing"

	"github.com/jchiang87/imSim/core"
)

func rampImage() *core.Image {
	img := core.NewImage(core.NewBounds(8, 4))
	for i := range img.Pix {
		img.Pix[i] = float64(i) * 1.5
	}
	return img
}

func TestRawRoundTrip(t *testing.T) {
	img := rampImage()
	img.Bounds = core.Bounds{XMin: 11, XMax: 18, YMin: -2, YMax: 1}

	var buf bytes.Buffer
	if err := WriteRaw(&buf, img); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	got, err := ReadRaw(&buf)
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}
	if got.Bounds != img.Bounds {
		t.Fatalf("bounds = %+v, want %+v", got.Bounds, img.Bounds)
	}
	for i := range img.Pix {
		if got.Pix[i] != img.Pix[i] {
			t.Fatalf("pixel %d = %v, want %v", i, got.Pix[i], img.Pix[i])
		}
	}
}

func TestRawCompresses(t *testing.T) {
	img := core.NewImage(core.NewBounds(256, 256))
	img.Fill(1035.8)
	var buf bytes.Buffer
	if err := WriteRaw(&buf, img); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	if raw := 4 * len(img.Pix); buf.Len() >= raw/10 {
		t.Fatalf("constant image compressed to %d bytes, raw %d", buf.Len(), raw)
	}
}

func TestReadRawRejectsGarbage(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRaw(&buf, rampImage()); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	if _, err := ReadRaw(bytes.NewReader([]byte("definitely not zstd"))); err == nil {
		t.Fatalf("expected error for non-zstd input")
	}
	if err := WriteRaw(&bytes.Buffer{}, core.NewImage(core.Bounds{XMin: 1, XMax: 0, YMin: 1, YMax: 0})); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("err = %v, want ErrEmptyImage", err)
	}
}

func TestWritePNGStretch(t *testing.T) {
	img := rampImage()
	var buf bytes.Buffer
	if err := WritePNG(&buf, img, PreviewOptions{}); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 8 || b.Dy() != 4 {
		t.Fatalf("png size = %v", b)
	}
	// First pixel is the minimum and sits on the bottom row; the last pixel
	// is the maximum and sits on the top row.
	if r, _, _, _ := decoded.At(0, 3).RGBA(); r != 0 {
		t.Fatalf("minimum pixel = %d, want 0", r)
	}
	if r, _, _, _ := decoded.At(7, 0).RGBA(); r != 0xffff {
		t.Fatalf("maximum pixel = %d, want 65535", r)
	}
}

func TestWritePNGFlatImage(t *testing.T) {
	img := core.NewImage(core.NewBounds(3, 3))
	img.Fill(5)
	var buf bytes.Buffer
	if err := WritePNG(&buf, img, PreviewOptions{Softening: 2}); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	if err := WritePNG(&buf, nil, PreviewOptions{}); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("err = %v, want ErrEmptyImage", err)
	}
}
