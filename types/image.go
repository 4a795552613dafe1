package types

import "strings"

// Format identifies a raster image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatWebP Format = "webp"
	// FormatHEIC is accepted as input only. Requests to encode it fall back to JPEG.
	FormatHEIC Format = "heic"
)

// InputFormats lists every format that may be accepted as input.
var InputFormats = []Format{FormatPNG, FormatJPEG, FormatWebP, FormatHEIC}

// OutputFormats lists the formats offered as conversion targets.
var OutputFormats = []Format{FormatPNG, FormatJPEG, FormatWebP}

// Size represents width and height dimensions.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG, FormatHEIC:
		return "jpg"
	case FormatWebP:
		return "webp"
	}
	return ""
}

// MimeType returns the canonical content type for the format.
func (f Format) MimeType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	case FormatHEIC:
		return "image/heic"
	}
	return ""
}

// Label is the short uppercase name shown to users.
func (f Format) Label() string {
	switch f {
	case FormatPNG:
		return "PNG"
	case FormatJPEG:
		return "JPG"
	case FormatWebP:
		return "WebP"
	case FormatHEIC:
		return "HEIC"
	}
	return strings.ToUpper(string(f))
}

// IsInput reports whether f may be accepted as an input format.
func (f Format) IsInput() bool {
	for _, in := range InputFormats {
		if in == f {
			return true
		}
	}
	return false
}

// IsEncodable reports whether f may be requested as a conversion target.
// HEIC is encodable only in the sense that it is substituted with JPEG.
func (f Format) IsEncodable() bool {
	return f == FormatPNG || f == FormatJPEG || f == FormatWebP || f == FormatHEIC
}

// Lossy reports whether the quality parameter applies to f.
func (f Format) Lossy() bool {
	return f == FormatJPEG || f == FormatWebP || f == FormatHEIC
}

// ParseFormat accepts format names and common aliases ("jpg", "heif").
func ParseFormat(name string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "png":
		return FormatPNG, true
	case "jpg", "jpeg":
		return FormatJPEG, true
	case "webp":
		return FormatWebP, true
	case "heic", "heif":
		return FormatHEIC, true
	}
	return "", false
}

// FormatFromMIME maps a content type to a Format. Parameters such as
// "; charset=" are ignored.
func FormatFromMIME(contentType string) (Format, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	switch ct {
	case "image/png":
		return FormatPNG, true
	case "image/jpeg", "image/jpg":
		return FormatJPEG, true
	case "image/webp":
		return FormatWebP, true
	case "image/heic", "image/heif":
		return FormatHEIC, true
	}
	return "", false
}
