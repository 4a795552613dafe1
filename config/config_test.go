package config

import (
	"testing"

	"github.com/mobile-next/imgconvert/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 85, cfg.Params.Quality)
	assert.Equal(t, 0, cfg.Params.MaxWidth)
	assert.Equal(t, []types.Format{types.FormatPNG, types.FormatJPEG}, cfg.Params.Inputs)
	assert.Equal(t, types.FormatWebP, cfg.Params.Output)
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
	require.NoError(t, cfg.Params.Validate())
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(p *Params)
		wantErr error
	}{
		{"quality too low", func(p *Params) { p.Quality = 0 }, ErrInvalidQuality},
		{"quality too high", func(p *Params) { p.Quality = 101 }, ErrInvalidQuality},
		{"negative max width", func(p *Params) { p.MaxWidth = -1 }, ErrInvalidMaxWidth},
		{"no inputs", func(p *Params) { p.Inputs = nil }, ErrNoInputFormats},
		{"bad output", func(p *Params) { p.Output = "gif" }, ErrInvalidOutputFormat},
		{"quality bounds ok", func(p *Params) { p.Quality = 1 }, nil},
		{"heic output ok", func(p *Params) { p.Output = types.FormatHEIC }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)
			err := p.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParams_ToggleInput(t *testing.T) {
	p := DefaultParams()

	assert.True(t, p.ToggleInput(types.FormatWebP))
	assert.True(t, p.Accepts(types.FormatWebP))

	assert.True(t, p.ToggleInput(types.FormatPNG))
	assert.False(t, p.Accepts(types.FormatPNG))

	assert.True(t, p.ToggleInput(types.FormatJPEG))
	assert.Equal(t, []types.Format{types.FormatWebP}, p.Inputs)

	// last one stays
	assert.False(t, p.ToggleInput(types.FormatWebP))
	assert.Equal(t, []types.Format{types.FormatWebP}, p.Inputs)

	assert.False(t, p.ToggleInput("gif"))
}

func TestParams_CloneDoesNotShareInputs(t *testing.T) {
	p := DefaultParams()
	c := p.Clone()
	c.ToggleInput(types.FormatHEIC)

	assert.Len(t, p.Inputs, 2)
	assert.Len(t, c.Inputs, 3)
}

func TestParams_AcceptString(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, "image/png,image/jpeg,image/jpg", p.AcceptString())

	p.Inputs = []types.Format{types.FormatHEIC}
	assert.Equal(t, "image/heic,image/heif", p.AcceptString())
}

func TestParseMaxWidth(t *testing.T) {
	tests := []struct {
		in       string
		expected int
	}{
		{"", 0},
		{"   ", 0},
		{"400", 400},
		{" 1200 ", 1200},
		{"0", 0},
		{"-5", 0},
		{"abc", 0},
		{"12px", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseMaxWidth(tt.in))
		})
	}
}

func TestParams_NormalizedQuality(t *testing.T) {
	p := DefaultParams()
	assert.InDelta(t, 0.85, p.NormalizedQuality(), 1e-9)
}
