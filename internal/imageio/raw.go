package imageio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/jchiang87/imSim/core"
)

// rawMagic opens every raw image stream.
var rawMagic = [8]byte{'I', 'M', 'S', 'I', 'M', 'R', 'A', 'W'}

// ErrBadRawImage reports a stream that is not a raw image.
var ErrBadRawImage = errors.New("not an imsim raw image")

// rawHeader follows the magic: bounds as little-endian int32.
type rawHeader struct {
	XMin, XMax, YMin, YMax int32
}

// WriteRaw streams img to w as zstd-compressed little-endian float32 pixels
// behind a small bounds header.
func WriteRaw(w io.Writer, img *core.Image) error {
	if img == nil || len(img.Pix) == 0 {
		return ErrEmptyImage
	}
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	bw := bufio.NewWriter(enc)

	if err := writeRaw(bw, img); err != nil {
		enc.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return fmt.Errorf("flush raw image: %w", err)
	}
	return enc.Close()
}

func writeRaw(w io.Writer, img *core.Image) error {
	b := img.Bounds
	hdr := rawHeader{XMin: int32(b.XMin), XMax: int32(b.XMax), YMin: int32(b.YMin), YMax: int32(b.YMax)}
	if _, err := w.Write(rawMagic[:]); err != nil {
		return fmt.Errorf("write raw magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("write raw header: %w", err)
	}
	var buf [4]byte
	for _, v := range img.Pix {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(float32(v)))
		if _, err := w.Write(buf[:]); err != nil {
			return fmt.Errorf("write raw pixels: %w", err)
		}
	}
	return nil
}

// ReadRaw decodes a stream written by WriteRaw. Pixels come back at float32
// precision.
func ReadRaw(r io.Reader) (*core.Image, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()
	br := bufio.NewReader(dec)

	var magic [8]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRawImage, err)
	}
	if magic != rawMagic {
		return nil, ErrBadRawImage
	}
	var hdr rawHeader
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read raw header: %w", err)
	}
	bounds := core.Bounds{XMin: int(hdr.XMin), XMax: int(hdr.XMax), YMin: int(hdr.YMin), YMax: int(hdr.YMax)}
	if bounds.NPix() == 0 {
		return nil, fmt.Errorf("%w: empty bounds %+v", ErrBadRawImage, bounds)
	}

	img := core.NewImage(bounds)
	var buf [4]byte
	for i := range img.Pix {
		if _, err := io.ReadFull(br, buf[:]); err != nil {
			return nil, fmt.Errorf("read raw pixel %d: %w", i, err)
		}
		img.Pix[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[:])))
	}
	return img, nil
}
