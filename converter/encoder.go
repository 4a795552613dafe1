package converter

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	"github.com/mobile-next/imgconvert/types"
)

// Encoder encodes a raster to a specific format.
type Encoder interface {
	// Format returns the format this encoder produces.
	Format() types.Format

	// Encode converts the image to bytes at the given quality (1-100).
	// Lossless encoders ignore quality.
	Encode(img image.Image, quality int) ([]byte, error)
}

// PNGEncoder encodes lossless PNG.
type PNGEncoder struct{}

func (e *PNGEncoder) Format() types.Format { return types.FormatPNG }

func (e *PNGEncoder) Encode(img image.Image, _ int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(512 * 1024)

	if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.DefaultCompression)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// JPEGEncoder encodes baseline JPEG.
type JPEGEncoder struct{}

func (e *JPEGEncoder) Format() types.Format { return types.FormatJPEG }

func (e *JPEGEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(256 * 1024)

	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(clampQuality(quality))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WebPEncoder encodes lossy WebP through libwebp.
type WebPEncoder struct{}

func (e *WebPEncoder) Format() types.Format { return types.FormatWebP }

func (e *WebPEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(clampQuality(quality)))
	if err != nil {
		return nil, fmt.Errorf("invalid webp options: %w", err)
	}

	if _, ok := img.(*image.NRGBA); !ok {
		img = imaging.Clone(img)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, options); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DefaultEncoders returns the built-in encoder set.
func DefaultEncoders() []Encoder {
	return []Encoder{&PNGEncoder{}, &JPEGEncoder{}, &WebPEncoder{}}
}

func clampQuality(quality int) int {
	if quality < 1 {
		return 1
	}
	if quality > 100 {
		return 100
	}
	return quality
}
