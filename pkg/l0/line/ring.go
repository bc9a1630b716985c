package line

// Ring is a fixed-capacity FIFO of bytes. It is not safe for concurrent use.
type Ring struct {
	buf     []byte
	head    int
	size    int
	dropped uint64
}

// NewRing creates a Ring holding at most capacity bytes.
func NewRing(capacity int) *Ring {
	return &Ring{buf: make([]byte, capacity)}
}

// Len is the number of buffered bytes.
func (r *Ring) Len() int { return r.size }

// Cap is the capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// Dropped is the number of bytes discarded because the ring was full.
func (r *Ring) Dropped() uint64 { return r.dropped }

// Write appends as many bytes as fit and returns the count.
// The remaining bytes are dropped.
func (r *Ring) Write(p []byte) int {
	n := len(r.buf) - r.size
	if n > len(p) {
		n = len(p)
	}
	for i := 0; i < n; i++ {
		r.buf[(r.head+r.size+i)%len(r.buf)] = p[i]
	}
	r.size += n
	r.dropped += uint64(len(p) - n)
	return n
}

// Read moves up to len(p) bytes into p.
func (r *Ring) Read(p []byte) int {
	n := r.size
	if n > len(p) {
		n = len(p)
	}
	for i := 0; i < n; i++ {
		p[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	r.head = (r.head + n) % len(r.buf)
	r.size -= n
	return n
}
