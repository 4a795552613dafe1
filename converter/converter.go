// Package converter re-encodes raster images entirely in memory: decode,
// optionally downscale to a maximum width, render to a surface of the target
// size, and encode to PNG, JPEG or WebP.
package converter

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/mobile-next/imgconvert/config"
	"github.com/mobile-next/imgconvert/types"
	"github.com/mobile-next/imgconvert/utils"
	"github.com/sirupsen/logrus"
)

// DefaultQuality is used when Options.Quality is outside (0,1].
const DefaultQuality = 0.85

// Options controls a single conversion.
type Options struct {
	Quality  float64      // (0,1], ignored for PNG
	MaxWidth int          // 0 means no bound
	Format   types.Format // requested target format
}

// Result is the encoded output. Format is the format actually produced,
// which differs from the requested one when HEIC falls back to JPEG.
type Result struct {
	Data   []byte
	Format types.Format
	Width  int
	Height int
}

// Converter holds the encoder set and surface limits. It is safe for
// concurrent use.
type Converter struct {
	encoders         map[types.Format]Encoder
	maxSurfacePixels int
}

type Option func(*Converter)

// WithEncoder registers e for its format, replacing any existing encoder.
func WithEncoder(e Encoder) Option {
	return func(c *Converter) {
		c.encoders[e.Format()] = e
	}
}

// WithoutEncoder removes the encoder for f.
func WithoutEncoder(f types.Format) Option {
	return func(c *Converter) {
		delete(c.encoders, f)
	}
}

// WithMaxSurfacePixels limits width*height of the rasterization surface.
// Zero or negative disables the limit.
func WithMaxSurfacePixels(n int) Option {
	return func(c *Converter) {
		c.maxSurfacePixels = n
	}
}

func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		encoders:         make(map[types.Format]Encoder),
		maxSurfacePixels: config.DefaultMaxSurfacePixels,
	}
	for _, e := range DefaultEncoders() {
		c.encoders[e.Format()] = e
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultConverter = NewConverter()

// Convert decodes src and re-encodes it using the default converter.
func Convert(ctx context.Context, src []byte, opts Options) (*Result, error) {
	return defaultConverter.Convert(ctx, src, opts)
}

// Encoder returns the encoder used for f after format resolution.
func (c *Converter) Encoder(f types.Format) (Encoder, bool) {
	e, ok := c.encoders[ResolveFormat(f)]
	return e, ok
}

// Convert decodes src and re-encodes it according to opts.
func (c *Converter) Convert(ctx context.Context, src []byte, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := Decode(src)
	if err != nil {
		return nil, err
	}

	return c.ConvertImage(ctx, img, opts)
}

// ConvertImage runs the scale, render and encode steps on an already decoded raster.
func (c *Converter) ConvertImage(ctx context.Context, img image.Image, opts Options) (*Result, error) {
	format := ResolveFormat(opts.Format)
	bounds := img.Bounds()
	width, height := TargetSize(bounds.Dx(), bounds.Dy(), opts.MaxWidth)

	log := utils.Logger().WithFields(logrus.Fields{
		"format": format,
		"width":  width,
		"height": height,
	})
	if format != opts.Format {
		log.Debugf("%s is not an output format, encoding as %s", opts.Format, format)
	}

	enc, ok := c.encoders[format]
	if !ok {
		return nil, fmt.Errorf("%w: no encoder for %s", ErrEncodeUnsupported, format)
	}

	surface, err := c.render(img, width, height)
	if err != nil {
		log.WithError(err).Warn("failed to render surface")
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := enc.Encode(surface, qualityPercent(opts.Quality))
	if err != nil {
		log.WithError(err).Warn("failed to encode image")
		return nil, fmt.Errorf("%w: %s: %v", ErrEncode, format, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEncodeUnsupported, format)
	}

	log.WithField("bytes", len(data)).Debug("conversion completed")

	return &Result{
		Data:   data,
		Format: format,
		Width:  width,
		Height: height,
	}, nil
}

// render draws img onto a new surface sized exactly width x height.
func (c *Converter) render(img image.Image, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid surface size %dx%d", ErrRasterizerUnavailable, width, height)
	}
	if c.maxSurfacePixels > 0 && int64(width)*int64(height) > int64(c.maxSurfacePixels) {
		return nil, fmt.Errorf("%w: surface %dx%d exceeds %d pixels", ErrRasterizerUnavailable, width, height, c.maxSurfacePixels)
	}

	bounds := img.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return imaging.Clone(img), nil
	}

	return imaging.Resize(img, width, height, imaging.Lanczos), nil
}

// TargetSize returns the output dimensions for a width x height raster under
// maxWidth. Scaling only ever shrinks; the aspect ratio is kept with the height
// rounded half away from zero and never below one pixel.
func TargetSize(width, height, maxWidth int) (int, int) {
	if maxWidth <= 0 || width <= maxWidth || width <= 0 {
		return width, height
	}

	h := int(math.Round(float64(height) * float64(maxWidth) / float64(width)))
	if h < 1 && height > 0 {
		h = 1
	}
	return maxWidth, h
}

// ResolveFormat maps a requested format to the one that will be encoded.
// HEIC has no encoder and falls back to JPEG.
func ResolveFormat(f types.Format) types.Format {
	if f == types.FormatHEIC {
		return types.FormatJPEG
	}
	return f
}

func qualityPercent(q float64) int {
	if q <= 0 || q > 1 || math.IsNaN(q) {
		q = DefaultQuality
	}
	return clampQuality(int(math.Round(q * 100)))
}
