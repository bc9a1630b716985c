package line

import (
	"context"
	"io"
	"sync"

	"github.com/goburrow/serial"
	"github.com/golang/glog"

	fx "github.com/robotalks/chain.go/pkg/framework"
	"github.com/robotalks/chain.go/pkg/l0/frame"
)

// Stream adapts a blocking io.ReadWriter (serial port, TCP, websocket)
// into a Line. A pump started by Run copies incoming bytes into a
// fixed-capacity buffer so reads never block.
type Stream struct {
	Name string

	rw   io.ReadWriter
	lock sync.Mutex
	ring *Ring
	err  error

	writeLock sync.Mutex
}

// NewStream wraps rw with a receive buffer of capacity bytes.
func NewStream(name string, rw io.ReadWriter, capacity int) *Stream {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Stream{Name: name, rw: rw, ring: NewRing(capacity)}
}

// Available implements Line.
func (s *Stream) Available() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.ring.Len()
}

// Dropped is the number of received bytes discarded on buffer overflow.
func (s *Stream) Dropped() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.ring.Dropped()
}

// Err returns the error which stopped the pump, if any.
func (s *Stream) Err() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.err
}

// Read implements io.Reader. It returns ErrNoData instead of blocking.
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if n := s.ring.Read(p); n > 0 {
		return n, nil
	}
	if s.err != nil {
		return 0, s.err
	}
	return 0, ErrNoData
}

// ReadByte implements io.ByteReader.
func (s *Stream) ReadByte() (byte, error) {
	var b [1]byte
	_, err := s.Read(b[:])
	return b[0], err
}

// Write writes p to the underlying stream.
func (s *Stream) Write(p []byte) (int, error) {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()
	return s.rw.Write(p)
}

// Close closes the underlying stream if it's closable.
func (s *Stream) Close() error {
	if closer, ok := s.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Run implements Runnable and pumps received bytes into the buffer
// until the stream fails or the context is canceled.
func (s *Stream) Run(ctx context.Context) error {
	pump := func() error {
		buf := make([]byte, frame.Size)
		for {
			n, err := s.rw.Read(buf)
			if n > 0 {
				s.lock.Lock()
				if stored := s.ring.Write(buf[:n]); stored < n {
					glog.Warningf("line %s: receive buffer full, dropped %d bytes", s.Name, n-stored)
				}
				s.lock.Unlock()
			}
			if err == serial.ErrTimeout {
				continue
			}
			if err != nil {
				s.lock.Lock()
				s.err = err
				s.lock.Unlock()
				return err
			}
		}
	}
	if closer, ok := s.rw.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, pump)
	}
	return fx.RunWithContextCancel(ctx, nil, pump)
}

// AddToLoop implements LoopAdder.
func (s *Stream) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(fx.NamedRun("line/"+s.Name, s))
}
