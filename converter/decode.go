package converter

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	// registers the WebP decoder with image.Decode
	_ "golang.org/x/image/webp"
)

// Decode rasterizes src, applying the EXIF orientation of JPEG sources.
// Any failure wraps ErrDecode.
func Decode(src []byte) (image.Image, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}

	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty raster", ErrDecode)
	}
	return img, nil
}
