package commands

import (
	"encoding/base64"
	"fmt"

	"github.com/mobile-next/imgconvert/batch"
	"github.com/mobile-next/imgconvert/utils"
)

// ItemView is an item as presented to the UI
type ItemView struct {
	batch.Item
	OriginalLabel  string `json:"originalLabel"`
	ConvertedLabel string `json:"convertedLabel,omitempty"`
	Reduction      string `json:"reduction,omitempty"`
}

// ListItemsResponse represents the current batch
type ListItemsResponse struct {
	Items        []ItemView   `json:"items"`
	Totals       batch.Totals `json:"totals"`
	SavingsLabel string       `json:"savingsLabel,omitempty"`
	Notice       string       `json:"notice,omitempty"`
}

// DownloadRequest selects one item by ID, or every converted item when ID is empty
type DownloadRequest struct {
	ID string `json:"id,omitempty"`
}

// DownloadResponse carries the packaged bytes
type DownloadResponse struct {
	FileName string `json:"fileName"`
	Data     string `json:"data"` // base64 encoded
	Count    int    `json:"count"`
}

// ListItemsCommand returns every item with its derived labels and the batch totals
func ListItemsCommand(c *batch.Controller) *CommandResponse {
	if c == nil {
		return NewErrorResponse(errNoSession)
	}

	items := c.Items()
	views := make([]ItemView, 0, len(items))
	for _, it := range items {
		view := ItemView{
			Item:          it,
			OriginalLabel: utils.FormatBytes(it.OriginalSize),
		}
		if it.Output != nil {
			view.ConvertedLabel = utils.FormatBytes(it.Output.Size)
		}
		if r, ok := it.Reduction(); ok {
			view.Reduction = fmt.Sprintf("%.1f%%", r)
		}
		views = append(views, view)
	}

	totals := c.Totals()
	response := ListItemsResponse{
		Items:  views,
		Totals: totals,
		Notice: noticeText(c),
	}
	// only shown when something was actually saved
	if len(items) > 0 && totals.Savings > 0 {
		response.SavingsLabel = utils.FormatBytes(totals.Savings)
	}

	return NewSuccessResponse(response)
}

// DownloadCommand packages one converted item, or all of them as a zip archive
func DownloadCommand(c *batch.Controller, req DownloadRequest) *CommandResponse {
	if c == nil {
		return NewErrorResponse(errNoSession)
	}

	var (
		d   *batch.Download
		err error
	)
	if req.ID != "" {
		d, err = c.DownloadOne(req.ID)
	} else {
		d, err = c.DownloadAll()
	}
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error preparing download: %v", err))
	}

	return NewSuccessResponse(DownloadResponse{
		FileName: d.Name,
		Data:     base64.StdEncoding.EncodeToString(d.Data),
		Count:    d.Count,
	})
}
