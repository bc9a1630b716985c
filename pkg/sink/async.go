package sink

import (
	"context"
	"sync/atomic"

	"github.com/golang/glog"

	fx "github.com/robotalks/chain.go/pkg/framework"
	"github.com/robotalks/chain.go/pkg/l0/frame"
)

// DefaultQueueSize is the queue length of Async when not specified.
const DefaultQueueSize = 64

// Async hands frames to Sink from its own goroutine, so Consume never
// blocks the caller. Frames arriving while the queue is full are dropped.
type Async struct {
	Sink Sink

	queue   chan frame.Frame
	dropped uint64
}

// NewAsync creates an Async queueing at most size frames.
func NewAsync(s Sink, size int) *Async {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Async{Sink: s, queue: make(chan frame.Frame, size)}
}

// Consume implements Sink.
func (a *Async) Consume(f *frame.Frame) error {
	select {
	case a.queue <- *f:
	default:
		n := atomic.AddUint64(&a.dropped, 1)
		glog.V(1).Infof("sink queue full, %d frames dropped", n)
	}
	return nil
}

// Dropped is the number of frames discarded on a full queue.
func (a *Async) Dropped() uint64 {
	return atomic.LoadUint64(&a.dropped)
}

// Name implements Named.
func (a *Async) Name() string {
	return "sink"
}

// Run implements Runnable.
func (a *Async) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f := <-a.queue:
			if err := a.Sink.Consume(&f); err != nil {
				glog.Errorf("sink error: %v", err)
			}
		}
	}
}

// AddToLoop implements LoopAdder.
func (a *Async) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(a)
}
