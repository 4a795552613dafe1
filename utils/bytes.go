package utils

import (
	"fmt"
	"strings"
)

// FormatBytes renders a byte count in kilobytes with two decimals.
func FormatBytes(n int64) string {
	return fmt.Sprintf("%.2f KB", float64(n)/1024)
}

// BaseName strips the final extension from a file name. A leading dot
// (".hidden") is not treated as an extension separator.
func BaseName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}
