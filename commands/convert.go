package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/mobile-next/imgconvert/batch"
	"github.com/mobile-next/imgconvert/config"
	"github.com/mobile-next/imgconvert/converter"
	"github.com/mobile-next/imgconvert/types"
)

// UpdateParamsRequest carries the fields the user changed. Nil or empty
// fields are left untouched.
type UpdateParamsRequest struct {
	Quality     *int    `json:"quality,omitempty"`
	MaxWidth    *string `json:"maxWidth,omitempty"` // raw text field value, "" clears the bound
	Output      string  `json:"output,omitempty"`
	ToggleInput string  `json:"toggleInput,omitempty"`
}

// ParamsResponse describes the parameters after an update
type ParamsResponse struct {
	Params       config.Params `json:"params"`
	AcceptString string        `json:"accept"`
	Notice       string        `json:"notice,omitempty"`
}

// UpdateParamsCommand applies parameter changes, re-converting the batch when needed
func UpdateParamsCommand(ctx context.Context, c *batch.Controller, req UpdateParamsRequest) *CommandResponse {
	if c == nil {
		return NewErrorResponse(errNoSession)
	}

	if req.ToggleInput != "" {
		format, ok := types.ParseFormat(req.ToggleInput)
		if !ok {
			return NewErrorResponse(fmt.Errorf("invalid input format '%s'", req.ToggleInput))
		}
		c.ToggleInput(format)
	}

	p := c.Params()
	if req.Quality != nil {
		p.Quality = *req.Quality
	}
	if req.MaxWidth != nil {
		p.MaxWidth = config.ParseMaxWidth(*req.MaxWidth)
	}
	if req.Output != "" {
		format, ok := types.ParseFormat(req.Output)
		if !ok {
			return NewErrorResponse(fmt.Errorf("invalid output format '%s'. Supported formats are 'png', 'jpg' and 'webp'", req.Output))
		}
		p.Output = format
	}

	err := c.SetParams(ctx, p)
	if err != nil && !errors.Is(err, converter.ErrEncodeUnsupported) {
		return NewErrorResponse(fmt.Errorf("error updating parameters: %v", err))
	}

	current := c.Params()
	return NewSuccessResponse(ParamsResponse{
		Params:       current,
		AcceptString: current.AcceptString(),
		Notice:       noticeText(c),
	})
}

// ConvertAllCommand re-runs the conversion for every item
func ConvertAllCommand(ctx context.Context, c *batch.Controller) *CommandResponse {
	if c == nil {
		return NewErrorResponse(errNoSession)
	}

	if err := c.ConvertAll(ctx); err != nil {
		return NewErrorResponse(err)
	}
	return ListItemsCommand(c)
}
