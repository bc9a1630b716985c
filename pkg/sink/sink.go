// Package sink consumes finished frames for human-readable or archival
// output. Sinks never feed back into routing.
package sink

import (
	"github.com/golang/glog"

	fx "github.com/robotalks/chain.go/pkg/framework"
	"github.com/robotalks/chain.go/pkg/l0/exchanger"
	"github.com/robotalks/chain.go/pkg/l0/frame"
)

// Sink consumes a frame.
type Sink interface {
	Consume(*frame.Frame) error
}

// ConsumeFunc is func type of Sink.
type ConsumeFunc func(*frame.Frame) error

// Consume implements Sink.
func (f ConsumeFunc) Consume(fr *frame.Frame) error {
	return f(fr)
}

// Multi passes frames to all sinks and aggregates errors.
type Multi []Sink

// Consume implements Sink.
func (m Multi) Consume(f *frame.Frame) error {
	var errs fx.AggregatedError
	for _, s := range m {
		errs.Add(s.Consume(f))
	}
	return errs.Aggregate()
}

// Observer feeds frames finished on this device, i.e. delivered to the
// Handler or replied, into a Sink.
type Observer struct {
	Sink Sink
}

// NewObserver creates an Observer.
func NewObserver(sinks ...Sink) *Observer {
	if len(sinks) == 1 {
		return &Observer{Sink: sinks[0]}
	}
	return &Observer{Sink: Multi(sinks)}
}

// FrameRouted implements exchanger.Observer.
func (o *Observer) FrameRouted(side exchanger.Side, f *frame.Frame, action exchanger.Action) {
	if action != exchanger.ActionDeliver && action != exchanger.ActionReply {
		return
	}
	if err := o.Sink.Consume(f); err != nil {
		glog.Errorf("sink error: %v", err)
	}
}

// FrameError implements exchanger.Observer.
func (o *Observer) FrameError(exchanger.Side, error) {}
