package batch

import (
	"github.com/mobile-next/imgconvert/converter"
	"github.com/mobile-next/imgconvert/types"
)

// Status is the conversion state of an Item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConverting Status = "converting"
	StatusConverted  Status = "converted"
	StatusFailed     Status = "failed"
)

// Output is a successful conversion result.
type Output struct {
	Data   []byte       `json:"-"`
	Size   int64        `json:"size"`
	Handle string       `json:"handle"`
	Format types.Format `json:"format"`
	Width  int          `json:"width"`
	Height int          `json:"height"`
}

// Item is one user-supplied image and its conversion state.
//
// Output is set only while Status is StatusConverted, or while Status is
// StatusConverting after an earlier success (a re-conversion, see
// Reconverting). Error and ErrorKind are set only while Status is StatusFailed.
type Item struct {
	ID           string       `json:"id"`
	Name         string       `json:"fileName"`
	SourceFormat types.Format `json:"sourceFormat"`
	OriginalSize int64        `json:"originalSize"`
	SourceHandle string       `json:"originalHandle"`
	Dimensions   types.Size   `json:"dimensions"`
	Status       Status       `json:"status"`
	Output       *Output      `json:"output,omitempty"`
	Error        string       `json:"error,omitempty"`
	ErrorKind    string       `json:"errorKind,omitempty"`
	// Format is the target format of the most recent attempt; after a success
	// it is the format actually encoded.
	Format types.Format `json:"outputFormat"`

	source     []byte
	decoded    bool
	generation uint64
}

// HasDimensions reports whether the natural size has been determined.
func (it *Item) HasDimensions() bool {
	return it.decoded
}

// Reconverting reports whether a conversion is in flight while the previous
// successful output is still held.
func (it *Item) Reconverting() bool {
	return it.Status == StatusConverting && it.Output != nil
}

// ConvertedSize is the size of the held output, or 0.
func (it *Item) ConvertedSize() int64 {
	if it.Output == nil {
		return 0
	}
	return it.Output.Size
}

// Reduction returns the size reduction in percent. ok is false when the item
// is not converted or the original is empty. Growth yields a negative value.
func (it *Item) Reduction() (percent float64, ok bool) {
	if it.Status != StatusConverted || it.Output == nil || it.OriginalSize <= 0 {
		return 0, false
	}
	return (1 - float64(it.Output.Size)/float64(it.OriginalSize)) * 100, true
}

// setDimensions records the natural size once; later calls are ignored.
func (it *Item) setDimensions(size types.Size) {
	if it.decoded {
		return
	}
	it.Dimensions = size
	it.decoded = true
}

// begin enters StatusConverting for a new attempt and returns its generation.
func (it *Item) begin(format types.Format) uint64 {
	it.generation++
	it.Status = StatusConverting
	it.Format = format
	it.Error = ""
	it.ErrorKind = ""
	return it.generation
}

// succeed stores out and returns the handle of the output it replaces.
func (it *Item) succeed(out *Output) (superseded string) {
	if it.Output != nil {
		superseded = it.Output.Handle
	}
	it.Status = StatusConverted
	it.Output = out
	it.Format = out.Format
	it.Error = ""
	it.ErrorKind = ""
	return superseded
}

// fail records err and returns the handle of the output it drops.
func (it *Item) fail(err error) (superseded string) {
	if it.Output != nil {
		superseded = it.Output.Handle
	}
	it.Status = StatusFailed
	it.Output = nil
	it.Error = err.Error()
	it.ErrorKind = converter.Kind(err)
	return superseded
}

// snapshot returns a copy safe to hand outside the controller lock.
func (it *Item) snapshot() Item {
	c := *it
	if it.Output != nil {
		out := *it.Output
		c.Output = &out
	}
	c.source = nil
	return c
}
