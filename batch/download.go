package batch

import (
	"fmt"
	"strings"

	"github.com/mobile-next/imgconvert/converter"
	"github.com/mobile-next/imgconvert/utils"
)

// Download is a named byte buffer ready to be saved by the caller.
type Download struct {
	Name string
	Data []byte
	// Count is the number of converted items packaged.
	Count int
}

// DownloadName is the file name for an item's output: the original name with
// its final extension replaced by the extension of the format actually encoded.
func DownloadName(it Item) string {
	return utils.BaseName(it.Name) + "." + it.Format.Extension()
}

// DownloadOne returns the converted output of a single item.
func (c *Controller) DownloadOne(id string) (*Download, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if it.Status != StatusConverted || it.Output == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotConverted, it.Name)
	}

	return &Download{
		Name:  DownloadName(*it),
		Data:  it.Output.Data,
		Count: 1,
	}, nil
}

// DownloadAll packages every converted item into one zip archive. Items that
// are pending, converting or failed are left out.
func (c *Controller) DownloadAll() (*Download, error) {
	c.mu.Lock()
	var entries []utils.ZipEntry
	seen := make(map[string]int)
	for _, it := range c.items {
		if it.Status != StatusConverted || it.Output == nil {
			continue
		}
		entries = append(entries, utils.ZipEntry{
			Name: uniqueName(DownloadName(*it), seen),
			Data: it.Output.Data,
		})
	}
	ext := converter.ResolveFormat(c.cfg.Params.Output).Extension()
	c.mu.Unlock()

	if len(entries) == 0 {
		return nil, ErrNothingToDownload
	}

	data, err := utils.ZipEntries(entries)
	if err != nil {
		return nil, err
	}

	return &Download{
		Name:  fmt.Sprintf("converted-images.%s.zip", ext),
		Data:  data,
		Count: len(entries),
	}, nil
}

// uniqueName suffixes repeated names as "photo (2).webp", "photo (3).webp".
func uniqueName(name string, seen map[string]int) string {
	seen[name]++
	n := seen[name]
	if n == 1 {
		return name
	}

	base := utils.BaseName(name)
	ext := strings.TrimPrefix(name, base)
	candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
	if _, taken := seen[candidate]; taken {
		return uniqueName(name, seen)
	}
	seen[candidate] = 1
	return candidate
}
