package xmfile

import (
	"bytes"
)

// convertCstring interprets data as a NUL-padded fixed-size string.
func convertCstring(data []byte) string {
	i := bytes.IndexByte(data, 0)
	if i == -1 {
		return string(data)
	}
	return string(data[:i])
}
