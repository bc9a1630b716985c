package line

import "sync"

// Endpoint is one end of an in-memory line created by Pair.
type Endpoint struct {
	peer   *Endpoint
	lock   sync.Mutex
	ring   *Ring
	closed bool
}

// Pair creates two connected in-memory endpoints. Bytes written to one
// are read from the other.
func Pair(capacity int) (*Endpoint, *Endpoint) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	a, b := &Endpoint{ring: NewRing(capacity)}, &Endpoint{ring: NewRing(capacity)}
	a.peer, b.peer = b, a
	return a, b
}

// Available implements Line.
func (e *Endpoint) Available() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.ring.Len()
}

// Read implements io.Reader without blocking.
func (e *Endpoint) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	e.lock.Lock()
	defer e.lock.Unlock()
	if n := e.ring.Read(p); n > 0 {
		return n, nil
	}
	if e.closed {
		return 0, ErrClosed
	}
	return 0, ErrNoData
}

// ReadByte implements io.ByteReader.
func (e *Endpoint) ReadByte() (byte, error) {
	var b [1]byte
	_, err := e.Read(b[:])
	return b[0], err
}

// Write delivers p to the peer's buffer, entirely or not at all.
func (e *Endpoint) Write(p []byte) (int, error) {
	e.lock.Lock()
	closed := e.closed
	e.lock.Unlock()
	if closed {
		return 0, ErrClosed
	}
	peer := e.peer
	peer.lock.Lock()
	defer peer.lock.Unlock()
	if peer.closed {
		return 0, ErrClosed
	}
	// a partial frame left in the buffer would misalign every frame after it.
	if peer.ring.Cap()-peer.ring.Len() < len(p) {
		peer.ring.dropped += uint64(len(p))
		return 0, ErrOverflow
	}
	return peer.ring.Write(p), nil
}

// Close closes both ends.
func (e *Endpoint) Close() error {
	for _, ep := range []*Endpoint{e, e.peer} {
		ep.lock.Lock()
		ep.closed = true
		ep.lock.Unlock()
	}
	return nil
}
