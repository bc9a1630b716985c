package exchanger

import (
	"context"
	"sync"
	"time"

	"github.com/robotalks/chain.go/pkg/l0/frame"
)

// Device is an entry discovered by a probe.
type Device struct {
	ID       frame.ID  `json:"id"`
	Side     Side      `json:"side"`
	Position int       `json:"position"`
	SeenAt   time.Time `json:"seen_at"`
}

// Directory collects the answers to probes issued by this device, in the
// order they arrive, which is the order along the chain. Frames other than
// probe answers go to Fallback.
type Directory struct {
	Fallback Handler

	lock    sync.RWMutex
	devices []Device
	index   map[frame.ID]int
}

// HandleFrame implements Handler.
func (d *Directory) HandleFrame(ctx context.Context, f *frame.Frame) bool {
	if f.Kind != frame.KindScan {
		if d.Fallback != nil {
			return d.Fallback.HandleFrame(ctx, f)
		}
		return false
	}
	side, _ := SideFrom(ctx)
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.index == nil {
		d.index = make(map[frame.ID]int)
	}
	now := time.Now()
	if n, ok := d.index[f.Sender]; ok {
		d.devices[n].Side, d.devices[n].SeenAt = side, now
		return false
	}
	pos := 1
	for _, dev := range d.devices {
		if dev.Side == side {
			pos++
		}
	}
	d.index[f.Sender] = len(d.devices)
	d.devices = append(d.devices, Device{ID: f.Sender, Side: side, Position: pos, SeenAt: now})
	return false
}

// Devices returns discovered devices in discovery order.
func (d *Directory) Devices() []Device {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return append([]Device(nil), d.devices...)
}

// Lookup finds a discovered device.
func (d *Directory) Lookup(id frame.ID) (Device, bool) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if n, ok := d.index[id]; ok {
		return d.devices[n], true
	}
	return Device{}, false
}

// Reset forgets all devices, e.g. before a new scan.
func (d *Directory) Reset() {
	d.lock.Lock()
	d.devices, d.index = nil, nil
	d.lock.Unlock()
}
