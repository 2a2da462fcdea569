package xmfile

import (
	"fmt"
)

// ParseError describes a malformed XM file. The Section tag locates
// the failure inside the file structure, Offset inside the raw bytes.
type ParseError struct {
	Message string
	Section string
	Offset  int
}

func (e *ParseError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("%s (offset=%d)", e.Message, e.Offset)
	}
	return fmt.Sprintf("%s: %s (offset=%d)", e.Section, e.Message, e.Offset)
}
