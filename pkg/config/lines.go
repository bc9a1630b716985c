package config

import (
	"io"

	"github.com/robotalks/chain.go/pkg/l0/exchanger"
	"github.com/robotalks/chain.go/pkg/l0/line"
)

// OpenLine opens the line on side, nil if the device is at that end of
// the chain.
func (c *Config) OpenLine(side exchanger.Side) (exchanger.Line, error) {
	rawURL := c.Upstream
	if side == exchanger.Downstream {
		rawURL = c.Downstream
	}
	s, err := line.Open(rawURL, c.BufferSize)
	if err != nil || s == nil {
		// a nil *Stream must not become a non-nil Line.
		return nil, err
	}
	return s, nil
}

// NewExchanger creates the Exchanger with both lines opened.
func (c *Config) NewExchanger(h exchanger.Handler) (*exchanger.Exchanger, error) {
	id, err := c.DeviceID()
	if err != nil {
		return nil, err
	}
	up, err := c.OpenLine(exchanger.Upstream)
	if err != nil {
		return nil, err
	}
	down, err := c.OpenLine(exchanger.Downstream)
	if err != nil {
		if closer, ok := up.(io.Closer); ok {
			closer.Close()
		}
		return nil, err
	}
	x := exchanger.New(id, h).WithLines(up, down)
	x.SkipVerify = c.SkipVerify
	return x, nil
}
