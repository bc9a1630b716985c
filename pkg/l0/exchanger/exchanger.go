package exchanger

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/time/rate"

	fx "github.com/robotalks/chain.go/pkg/framework"
	"github.com/robotalks/chain.go/pkg/l0/frame"
)

// Exchanger is the router of a chained device. It owns the device ID, the
// Handler and both lines for the lifetime of the device.
//
// Tick, Send and Scan are serialized, so frames can be originated from
// another goroutine while the loop ticks.
type Exchanger struct {
	ID       frame.ID
	Handler  Handler
	Observer Observer
	// SkipVerify accepts frames without checking the checksum, for peers
	// running firmware which doesn't produce a valid one.
	SkipVerify bool

	lines [2]Line
	lock  sync.Mutex
	// limits error logs on a noisy line.
	logLimiter *rate.Limiter
}

// New creates an Exchanger.
func New(id frame.ID, h Handler) *Exchanger {
	return &Exchanger{
		ID:         id,
		Handler:    h,
		logLimiter: rate.NewLimiter(rate.Every(time.Second), 10),
	}
}

// WithLines sets both lines. Either can be nil at the ends of the chain.
func (x *Exchanger) WithLines(upstream, downstream Line) *Exchanger {
	x.lock.Lock()
	x.lines[Upstream], x.lines[Downstream] = upstream, downstream
	x.lock.Unlock()
	return x
}

// Line returns the line on the side.
func (x *Exchanger) Line(side Side) Line {
	if !side.IsValid() {
		return nil
	}
	x.lock.Lock()
	defer x.lock.Unlock()
	return x.lines[side]
}

// Tick polls both lines once, upstream first, and routes at most one frame
// from each. A line with less than a full frame buffered is skipped.
func (x *Exchanger) Tick(ctx context.Context) {
	x.lock.Lock()
	defer x.lock.Unlock()
	x.poll(ctx, Upstream)
	x.poll(ctx, Downstream)
}

// Process routes a frame received from side.
func (x *Exchanger) Process(ctx context.Context, f *frame.Frame, from Side) (Action, error) {
	if !from.IsValid() {
		return ActionDrop, ErrInvalidSide
	}
	x.lock.Lock()
	defer x.lock.Unlock()
	return x.route(ctx, f, from)
}

// Send originates a frame on side. The checksum is recalculated.
func (x *Exchanger) Send(f *frame.Frame, side Side) error {
	if !side.IsValid() {
		return ErrInvalidSide
	}
	x.lock.Lock()
	defer x.lock.Unlock()
	if err := x.transmit(side, f, false); err != nil {
		x.reportError(side, err)
		return err
	}
	x.notify(side, f, ActionSend)
	return nil
}

// Scan sends an unaddressed probe on side. Every device down that line
// answers with a SCAN addressed to this device.
func (x *Exchanger) Scan(side Side) error {
	return x.Send(&frame.Frame{Kind: frame.KindScan, Sender: x.ID}, side)
}

// Control implements Controller.
func (x *Exchanger) Control(cc fx.ControlContext) error {
	x.Tick(cc.Context())
	return nil
}

// AddToLoop implements LoopAdder. Lines which need to run in the background
// are added as well.
func (x *Exchanger) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvRoute, x)
	for _, l := range x.lines {
		if adder, ok := l.(fx.LoopAdder); ok {
			loop.Add(adder)
		} else if runnable, ok := l.(fx.Runnable); ok {
			loop.AddRunnable(runnable)
		}
	}
}

func (x *Exchanger) poll(ctx context.Context, side Side) {
	l := x.lines[side]
	if l == nil || l.Available() < frame.Size {
		return
	}
	var f frame.Frame
	if _, err := f.ReadFrom(l); err != nil {
		x.reportError(side, err)
		return
	}
	if !x.SkipVerify {
		if err := f.Verify(); err != nil {
			x.reportError(side, err)
			return
		}
	}
	action, err := x.route(ctx, &f, side)
	if err != nil {
		x.reportError(side, err)
	}
	if glog.V(3) {
		glog.Infof("%s: %s %s", side, action, &f)
	}
}

func (x *Exchanger) route(ctx context.Context, f *frame.Frame, from Side) (action Action, err error) {
	peer := from.Peer()
	switch f.Kind {
	case frame.KindScan:
		switch {
		case f.Target.IsZero():
			// pass the probe on so the rest of the chain answers it too.
			err = x.transmit(peer, f, true)
			f.Target = x.ID
			f.SwapIDs()
			if werr := x.transmit(from, f, false); err == nil {
				err = werr
			}
			action = ActionProbe
		case f.Target == x.ID:
			x.deliver(ctx, f, from)
			action = ActionDeliver
		default:
			err, action = x.transmit(peer, f, true), ActionRelay
		}
	case frame.KindData:
		switch {
		case f.Target != x.ID:
			err, action = x.transmit(peer, f, true), ActionRelay
		case x.deliver(ctx, f, from):
			f.SwapIDs()
			err, action = x.transmit(from, f, false), ActionReply
		default:
			action = ActionDeliver
		}
	default:
		return ActionDrop, f.ValidateKind()
	}
	x.notify(from, f, action)
	return
}

func (x *Exchanger) deliver(ctx context.Context, f *frame.Frame, from Side) bool {
	if x.Handler == nil {
		return false
	}
	kind, sender, target := f.Kind, f.Sender, f.Target
	respond := x.Handler.HandleFrame(withSide(ctx, from), f)
	if f.Kind != kind || f.Sender != sender || f.Target != target {
		f.Kind, f.Sender, f.Target = kind, sender, target
		x.reportError(from, ErrHeaderMutated)
	}
	return respond
}

// transmit writes f to the line on side. A missing line is the end of the
// chain and nothing is written. Relayed frames keep their checksum bytes.
func (x *Exchanger) transmit(side Side, f *frame.Frame, relay bool) error {
	if !side.IsValid() {
		return ErrInvalidSide
	}
	l := x.lines[side]
	if l == nil {
		return nil
	}
	var b [frame.Size]byte
	if relay {
		b = f.RawBytes()
	} else {
		b = f.Bytes()
	}
	n, err := l.Write(b[:])
	if err == nil && n != frame.Size {
		err = &frame.LengthError{Op: "write", N: n}
	}
	return err
}

func (x *Exchanger) notify(side Side, f *frame.Frame, action Action) {
	if o := x.Observer; o != nil {
		o.FrameRouted(side, f, action)
	}
}

func (x *Exchanger) reportError(side Side, err error) {
	if x.logLimiter == nil || x.logLimiter.Allow() {
		glog.Warningf("%s: %v", side, err)
	}
	if o := x.Observer; o != nil {
		o.FrameError(side, err)
	}
}
