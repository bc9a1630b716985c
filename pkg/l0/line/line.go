// Package line provides the byte-stream endpoints devices in a chain are
// wired with.
package line

import (
	"errors"
	"io"

	"github.com/robotalks/chain.go/pkg/l0/frame"
)

// DefaultCapacity is the receive buffer size, room for a few frames.
const DefaultCapacity = 8 * frame.Size

var (
	// ErrNoData indicates a non-blocking read found the buffer empty.
	ErrNoData = errors.New("line: no data available")
	// ErrOverflow indicates the peer's receive buffer is full.
	ErrOverflow = errors.New("line: receive buffer overflow")
	// ErrClosed indicates the line is closed.
	ErrClosed = errors.New("line: closed")
)

// Line is one end of a communication line. Reads never block: Available
// tells how many bytes can be read right away.
type Line interface {
	Available() int
	io.Reader
	io.ByteReader
	io.Writer
}

// ReadFull reads exactly len(p) bytes if they are available. It consumes
// nothing and reports false otherwise.
func ReadFull(l Line, p []byte) bool {
	if l.Available() < len(p) {
		return false
	}
	_, err := io.ReadFull(l, p)
	return err == nil
}
