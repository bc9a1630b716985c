package exchanger

import (
	"context"
	"errors"
	"io"

	"github.com/robotalks/chain.go/pkg/l0/frame"
)

var (
	// ErrHeaderMutated indicates a Handler modified Kind, Sender or Target.
	// The fields are restored before routing continues.
	ErrHeaderMutated = errors.New("handler modified frame header")
	// ErrInvalidSide indicates a Side which is neither Upstream nor Downstream.
	ErrInvalidSide = errors.New("invalid side")
)

// Line is what the Exchanger needs from a communication line.
// Reads must not block, Available tells how many bytes can be read.
type Line interface {
	Available() int
	io.Reader
	io.Writer
}

// Side identifies one of the two lines of a device.
type Side int

// Sides of a device. Upstream is polled first in every tick.
const (
	Upstream Side = iota
	Downstream
)

// IsValid tells whether s is Upstream or Downstream.
func (s Side) IsValid() bool {
	return s == Upstream || s == Downstream
}

// Peer returns the opposite side.
func (s Side) Peer() Side {
	if s == Upstream {
		return Downstream
	}
	return Upstream
}

func (s Side) String() string {
	if s == Upstream {
		return "upstream"
	}
	return "downstream"
}

// Action is the routing decision taken for a frame.
type Action int

// Routing actions.
const (
	// ActionRelay forwards the frame untouched to the peer line.
	ActionRelay Action = iota + 1
	// ActionProbe relays an unaddressed SCAN and answers it on the source line.
	ActionProbe
	// ActionDeliver hands the frame to the Handler, nothing is sent.
	ActionDeliver
	// ActionReply hands the frame to the Handler and sends the reply back.
	ActionReply
	// ActionDrop discards the frame.
	ActionDrop
	// ActionSend originates a frame locally.
	ActionSend
)

var actionNames = map[Action]string{
	ActionRelay:   "relay",
	ActionProbe:   "probe",
	ActionDeliver: "deliver",
	ActionReply:   "reply",
	ActionDrop:    "drop",
	ActionSend:    "send",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// Observer is notified about routing results. It must not block and
// never influences routing.
type Observer interface {
	// FrameRouted is called after a frame is processed. f is the frame
	// as it was last sent or delivered.
	FrameRouted(side Side, f *frame.Frame, action Action)
	// FrameError reports a frame which couldn't be read, failed
	// validation or couldn't be fully transmitted.
	FrameError(side Side, err error)
}

// Observers fans out to multiple observers.
type Observers []Observer

// FrameRouted implements Observer.
func (o Observers) FrameRouted(side Side, f *frame.Frame, action Action) {
	for _, ob := range o {
		ob.FrameRouted(side, f, action)
	}
}

// FrameError implements Observer.
func (o Observers) FrameError(side Side, err error) {
	for _, ob := range o {
		ob.FrameError(side, err)
	}
}

type sideCtxKey struct{}

// SideFrom gets the line a frame was received from inside Handler.
func SideFrom(ctx context.Context) (Side, bool) {
	side, ok := ctx.Value(sideCtxKey{}).(Side)
	return side, ok
}

func withSide(ctx context.Context, side Side) context.Context {
	return context.WithValue(ctx, sideCtxKey{}, side)
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
