package sink

import (
	"fmt"
	"io"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/robotalks/chain.go/pkg/l0/frame"
)

// Printer writes one human readable line per frame.
type Printer struct {
	Writer io.Writer
	// Now is used for timestamps, defaults to time.Now.
	Now func() time.Time

	lock sync.Mutex
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{Writer: w}
}

// NewFilePrinter creates a Printer writing to a size-rotated file.
func NewFilePrinter(filename string, maxSizeMB, maxBackups int) *Printer {
	return NewPrinter(&lumberjack.Logger{
		Filename:   filename,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	})
}

// Consume implements Sink.
func (p *Printer) Consume(f *frame.Frame) error {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	_, err := fmt.Fprintf(p.Writer, "%s %s\n", now().Format("15:04:05.000"), f)
	return err
}

// Close closes the writer if it's closable.
func (p *Printer) Close() error {
	if closer, ok := p.Writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
