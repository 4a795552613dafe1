package commands

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/mobile-next/imgconvert/batch"
)

// FileInput is one dropped file. Data is base64 encoded.
type FileInput struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Data        string `json:"data"`
}

// AddFilesRequest represents the parameters for adding files to the batch
type AddFilesRequest struct {
	Files []FileInput `json:"files"`
}

// AddFilesResponse lists the ids of the accepted files
type AddFilesResponse struct {
	IDs    []string `json:"ids"`
	Notice string   `json:"notice,omitempty"`
}

// RemoveItemRequest identifies a single item
type RemoveItemRequest struct {
	ID string `json:"id"`
}

// AddFilesCommand decodes the dropped files and adds the accepted ones to the batch
func AddFilesCommand(ctx context.Context, c *batch.Controller, req AddFilesRequest) *CommandResponse {
	if c == nil {
		return NewErrorResponse(errNoSession)
	}

	files := make([]batch.File, 0, len(req.Files))
	for _, in := range req.Files {
		data, err := base64.StdEncoding.DecodeString(in.Data)
		if err != nil {
			return NewErrorResponse(fmt.Errorf("invalid data for %s: %v", in.Name, err))
		}
		files = append(files, batch.File{Name: in.Name, ContentType: in.ContentType, Data: data})
	}

	ids, err := c.AddFiles(ctx, files)
	if err != nil && !errors.Is(err, batch.ErrNoAcceptedFiles) {
		return NewErrorResponse(fmt.Errorf("error adding files: %v", err))
	}

	if ids == nil {
		ids = []string{}
	}
	return NewSuccessResponse(AddFilesResponse{
		IDs:    ids,
		Notice: noticeText(c),
	})
}

// RemoveItemCommand removes an item and releases its resources
func RemoveItemCommand(c *batch.Controller, req RemoveItemRequest) *CommandResponse {
	if c == nil {
		return NewErrorResponse(errNoSession)
	}
	if req.ID == "" {
		return NewErrorResponse(fmt.Errorf("item ID is required"))
	}

	if err := c.Remove(req.ID); err != nil {
		return NewErrorResponse(err)
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Removed item %s", req.ID),
	})
}

// ClearCommand removes every item
func ClearCommand(c *batch.Controller) *CommandResponse {
	if c == nil {
		return NewErrorResponse(errNoSession)
	}

	removed := c.Len()
	c.Clear()
	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Removed %d item(s)", removed),
	})
}
