package commands

import (
	"errors"

	"github.com/mobile-next/imgconvert/batch"
)

// CommandResponse represents a standardized response format for all commands
type CommandResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) *CommandResponse {
	return &CommandResponse{
		Status: "ok",
		Data:   data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(err error) *CommandResponse {
	return &CommandResponse{
		Status: "error",
		Error:  err.Error(),
	}
}

var errNoSession = errors.New("no conversion session")

// noticeText renders the batch-level blocking notice, or "" when there is none.
func noticeText(c *batch.Controller) string {
	if err := c.Notice(); err != nil {
		return err.Error()
	}
	return ""
}
