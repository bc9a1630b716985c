package exchanger

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/chain.go/pkg/l0/frame"
)

// Handler processes frames addressed to this device.
//
// HandleFrame may modify Status and Payload to build a reply in place, and
// returns true to have the frame sent back to the originator. Kind, Sender
// and Target belong to the Exchanger and are restored after the call.
type Handler interface {
	HandleFrame(context.Context, *frame.Frame) bool
}

// HandleFrameFunc is func type of Handler.
type HandleFrameFunc func(context.Context, *frame.Frame) bool

// HandleFrame implements Handler.
func (f HandleFrameFunc) HandleFrame(ctx context.Context, fr *frame.Frame) bool {
	return f(ctx, fr)
}

// LogHandler prints every frame and never replies.
// Frames go to glog when Writer is nil.
type LogHandler struct {
	Writer io.Writer
}

// HandleFrame implements Handler.
func (h *LogHandler) HandleFrame(ctx context.Context, f *frame.Frame) bool {
	side, _ := SideFrom(ctx)
	if h.Writer == nil {
		glog.Infof("[%s] %s", side, f)
	} else {
		fmt.Fprintf(h.Writer, "[%s] %s\n", side, f)
	}
	return false
}

// EchoHandler replies DATA frames with the payload unchanged.
type EchoHandler struct{}

// HandleFrame implements Handler.
func (EchoHandler) HandleFrame(_ context.Context, f *frame.Frame) bool {
	return f.Kind == frame.KindData
}

// StatusMux dispatches DATA frames by Status. Other frames, and statuses
// without a registered handler, go to Default.
type StatusMux struct {
	Default Handler

	lock     sync.RWMutex
	handlers map[byte]Handler
}

// Handle registers h for status.
func (m *StatusMux) Handle(status byte, h Handler) *StatusMux {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.handlers == nil {
		m.handlers = make(map[byte]Handler)
	}
	m.handlers[status] = h
	return m
}

// HandleFrame implements Handler.
func (m *StatusMux) HandleFrame(ctx context.Context, f *frame.Frame) bool {
	var h Handler
	if f.Kind == frame.KindData {
		m.lock.RLock()
		h = m.handlers[f.Status]
		m.lock.RUnlock()
	}
	if h == nil {
		h = m.Default
	}
	if h == nil {
		return false
	}
	return h.HandleFrame(ctx, f)
}
