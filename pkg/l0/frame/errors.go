package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated indicates fewer than Size bytes were available for a frame.
	ErrTruncated = errors.New("frame: truncated")
	// ErrChecksum indicates the transmitted checksum doesn't match the content.
	ErrChecksum = errors.New("frame: checksum mismatch")
	// ErrZeroID indicates the reserved broadcast identifier was used as a device id.
	ErrZeroID = errors.New("frame: zero identifier is reserved")
)

// LengthError reports a transfer of an unexpected number of bytes.
// It signals a transport malfunction rather than bad data.
type LengthError struct {
	Op string
	N  int
}

// Error implements error.
func (e *LengthError) Error() string {
	return fmt.Sprintf("frame: %s %d bytes, expect %d", e.Op, e.N, Size)
}

// KindError reports a frame kind which is neither SCAN nor DATA.
type KindError struct {
	Kind Kind
}

// Error implements error.
func (e *KindError) Error() string {
	return fmt.Sprintf("frame: undefined kind 0x%02x", byte(e.Kind))
}
