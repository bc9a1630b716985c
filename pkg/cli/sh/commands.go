package sh

import (
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/chain.go/pkg/l0/exchanger"
	"github.com/robotalks/chain.go/pkg/l0/frame"
)

var (
	// ScanCmd probes the chain and lists the answers.
	ScanCmd = ishell.Cmd{
		Name:    "scan",
		Aliases: []string{"s"},
		Help:    "[up|down]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			side := exchanger.Downstream
			if len(c.Args) > 0 {
				var err error
				if side, err = ParseSide(c.Args[0]); err != nil {
					c.Err(err)
					return
				}
			}
			if _, err := s.Scan(side); err != nil {
				c.Err(err)
				return
			}
			listDevices(c, s)
		},
	}

	// DevicesCmd lists devices found by the last scan.
	DevicesCmd = ishell.Cmd{
		Name:    "devices",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			listDevices(c, ShellFrom(c))
		},
	}

	// SendCmd sends a DATA frame to a device.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"d"},
		Help:    "ID STATUS [HEX-PAYLOAD]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("expect ID STATUS [HEX-PAYLOAD]"))
				return
			}
			id, err := frame.ParseID(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			status, err := ParseStatus(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			var payload []byte
			if len(c.Args) > 2 {
				if payload, err = ParsePayload(c.Args[2]); err != nil {
					c.Err(err)
					return
				}
			}
			s := ShellFrom(c)
			reply, err := s.Send(id, status, payload)
			if err != nil {
				c.Err(err)
				return
			}
			if reply == nil {
				c.Println("No reply")
				return
			}
			s.print(c, reply, func() { c.Println(reply.String()) })
		},
	}
)

func listDevices(c *ishell.Context, s *Shell) {
	devices := s.Directory.Devices()
	if devices == nil {
		// in case of nil, make it empty slice.
		devices = []exchanger.Device{}
	}
	s.print(c, devices, func() {
		if len(devices) == 0 {
			c.Println("No devices found")
			return
		}
		for _, dev := range devices {
			c.Printf("%s %-10s #%d\n", dev.ID, dev.Side, dev.Position)
		}
	})
}
