package converter

import "errors"

var (
	// ErrDecode means the source bytes could not be rasterized.
	ErrDecode = errors.New("failed to decode image")
	// ErrEncodeUnsupported means the target encoder produced no output on this runtime.
	ErrEncodeUnsupported = errors.New("encoder produced no output (format may not be supported)")
	// ErrEncode is a generic encoder failure.
	ErrEncode = errors.New("failed to encode image")
	// ErrRasterizerUnavailable means no rasterization surface could be provided.
	ErrRasterizerUnavailable = errors.New("rasterization surface unavailable")
)

// Kind classifies err into one of the conversion failure kinds.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrEncodeUnsupported):
		return "encode-unsupported"
	case errors.Is(err, ErrEncode):
		return "encode"
	case errors.Is(err, ErrRasterizerUnavailable):
		return "rasterizer-unavailable"
	}
	return "unknown"
}
