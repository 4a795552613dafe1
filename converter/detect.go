package converter

import (
	"github.com/gabriel-vasile/mimetype"
	"github.com/mobile-next/imgconvert/types"
)

// DetectFormat sniffs the content type of data. Subtypes resolve through
// their parents, so animated PNG is reported as PNG.
func DetectFormat(data []byte) (types.Format, bool) {
	for mt := mimetype.Detect(data); mt != nil; mt = mt.Parent() {
		if f, ok := types.FormatFromMIME(mt.String()); ok {
			return f, true
		}
	}
	return "", false
}
