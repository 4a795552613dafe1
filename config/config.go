// Package config holds the session-lived conversion parameters.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mobile-next/imgconvert/types"
)

const (
	DefaultQuality          = 85
	DefaultConcurrency      = 4
	DefaultMaxSurfacePixels = 16384 * 16384
	DefaultRasterCacheSize  = 32
)

var (
	ErrInvalidQuality      = errors.New("quality must be between 1 and 100")
	ErrInvalidMaxWidth     = errors.New("max width must be a positive integer or unset")
	ErrNoInputFormats      = errors.New("at least one input format must be accepted")
	ErrInvalidOutputFormat = errors.New("unsupported output format")
)

// Params are the batch parameters a user edits during a session.
type Params struct {
	Quality  int            `json:"quality"`  // 1-100, lossy formats only
	MaxWidth int            `json:"maxWidth"` // 0 means no bound
	Inputs   []types.Format `json:"inputs"`
	Output   types.Format   `json:"output"`
}

// Config is the full session configuration. Nothing is persisted; every
// session starts from DefaultConfig.
type Config struct {
	Params Params

	// Concurrency bounds the number of outstanding conversions.
	Concurrency int
	// MaxSurfacePixels is the largest width*height a rasterization surface may have.
	MaxSurfacePixels int
	// RasterCacheSize is the number of decoded sources kept between re-conversions.
	RasterCacheSize int
}

// DefaultParams returns the parameters every session starts with.
func DefaultParams() Params {
	return Params{
		Quality:  DefaultQuality,
		MaxWidth: 0,
		Inputs:   []types.Format{types.FormatPNG, types.FormatJPEG},
		Output:   types.FormatWebP,
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Params:           DefaultParams(),
		Concurrency:      DefaultConcurrency,
		MaxSurfacePixels: DefaultMaxSurfacePixels,
		RasterCacheSize:  DefaultRasterCacheSize,
	}
}

// Validate checks every parameter against its allowed range.
func (p Params) Validate() error {
	if p.Quality < 1 || p.Quality > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidQuality, p.Quality)
	}
	if p.MaxWidth < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxWidth, p.MaxWidth)
	}
	if len(p.Inputs) == 0 {
		return ErrNoInputFormats
	}
	for _, f := range p.Inputs {
		if !f.IsInput() {
			return fmt.Errorf("unsupported input format: %s", f)
		}
	}
	if !p.Output.IsEncodable() {
		return fmt.Errorf("%w: %s", ErrInvalidOutputFormat, p.Output)
	}
	return nil
}

// Clone returns a copy that shares no slices with p.
func (p Params) Clone() Params {
	c := p
	c.Inputs = append([]types.Format(nil), p.Inputs...)
	return c
}

// Accepts reports whether f is in the accepted input set.
func (p Params) Accepts(f types.Format) bool {
	for _, in := range p.Inputs {
		if in == f {
			return true
		}
	}
	return false
}

// ToggleInput enables f if it is disabled and disables it otherwise. The last
// remaining format cannot be disabled; ToggleInput reports whether the set changed.
func (p *Params) ToggleInput(f types.Format) bool {
	if !f.IsInput() {
		return false
	}

	for i, in := range p.Inputs {
		if in != f {
			continue
		}
		if len(p.Inputs) == 1 {
			return false
		}
		p.Inputs = append(p.Inputs[:i:i], p.Inputs[i+1:]...)
		return true
	}

	p.Inputs = append(p.Inputs, f)
	return true
}

// AcceptString renders the enabled inputs as a file picker accept list.
func (p Params) AcceptString() string {
	var parts []string
	for _, f := range p.Inputs {
		switch f {
		case types.FormatHEIC:
			parts = append(parts, "image/heic", "image/heif")
		case types.FormatJPEG:
			parts = append(parts, "image/jpeg", "image/jpg")
		default:
			parts = append(parts, f.MimeType())
		}
	}
	return strings.Join(parts, ",")
}

// NormalizedQuality maps the 1-100 quality onto (0,1].
func (p Params) NormalizedQuality() float64 {
	return float64(p.Quality) / 100
}

// ParseMaxWidth interprets free-form text input. Blank, non-numeric and
// non-positive values all mean "no bound" and yield 0.
func ParseMaxWidth(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
