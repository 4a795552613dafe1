package converter

import (
	"image"
	"image/color"
	"sync"

	"github.com/mobile-next/imgconvert/types"
	"github.com/mobile-next/imgconvert/utils"
)

// Probe answers whether a format can actually be encoded on this runtime by
// encoding a 1x1 surface once per format and caching the outcome.
type Probe struct {
	conv *Converter

	mu      sync.Mutex
	results map[types.Format]bool
}

func NewProbe(conv *Converter) *Probe {
	return &Probe{
		conv:    conv,
		results: make(map[types.Format]bool),
	}
}

// Supports reports whether f produces encoder output. The first call for a
// format runs the trial encode; later calls return the cached result.
func (p *Probe) Supports(f types.Format) bool {
	f = ResolveFormat(f)

	p.mu.Lock()
	defer p.mu.Unlock()

	if supported, ok := p.results[f]; ok {
		return supported
	}

	supported := p.run(f)
	p.results[f] = supported
	utils.Verbose("encoder probe for %s: supported=%v", f, supported)
	return supported
}

func (p *Probe) run(f types.Format) (supported bool) {
	enc, ok := p.conv.Encoder(f)
	if !ok {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			utils.Verbose("encoder probe for %s panicked: %v", f, r)
			supported = false
		}
	}()

	surface := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	surface.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})

	data, err := enc.Encode(surface, 80)
	return err == nil && len(data) > 0
}
