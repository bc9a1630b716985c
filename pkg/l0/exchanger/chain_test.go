package exchanger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/chain.go/pkg/l0/frame"
	"github.com/robotalks/chain.go/pkg/l0/line"
)

// chain wires a master and devices: master.down <-> dev1.up, dev1.down <-> dev2.up ...
type chain struct {
	master  *Exchanger
	dir     *Directory
	devices []*Exchanger
}

func newChain(ids ...frame.ID) *chain {
	c := &chain{dir: &Directory{}}
	c.master = New(masterID, c.dir)
	prev := c.master
	for _, id := range ids {
		far, near := line.Pair(0)
		prev.lines[Downstream] = far
		dev := New(id, EchoHandler{}).WithLines(near, nil)
		c.devices = append(c.devices, dev)
		prev = dev
	}
	return c
}

func (c *chain) tick(rounds int) {
	for i := 0; i < rounds; i++ {
		c.master.Tick(context.Background())
		for _, dev := range c.devices {
			dev.Tick(context.Background())
		}
	}
}

func TestChainDiscovery(t *testing.T) {
	ids := []frame.ID{{1, 0, 0, 1}, {1, 0, 0, 2}, {1, 0, 0, 3}}
	c := newChain(ids...)
	require.NoError(t, c.master.Scan(Downstream))
	c.tick(10)

	devices := c.dir.Devices()
	require.Len(t, devices, len(ids))
	for n, dev := range devices {
		require.Equal(t, ids[n], dev.ID)
		require.Equal(t, Downstream, dev.Side)
		require.Equal(t, n+1, dev.Position)
	}
	for _, dev := range c.devices {
		for _, l := range dev.lines {
			if l != nil {
				require.Zero(t, l.Available())
			}
		}
	}

	// scanning again keeps the entries.
	require.NoError(t, c.master.Scan(Downstream))
	c.tick(10)
	require.Len(t, c.dir.Devices(), len(ids))
	_, ok := c.dir.Lookup(ids[2])
	require.True(t, ok)

	c.dir.Reset()
	require.Empty(t, c.dir.Devices())
}

func TestChainDataRoundTrip(t *testing.T) {
	ids := []frame.ID{{1, 0, 0, 1}, {1, 0, 0, 2}, {1, 0, 0, 3}}
	c := newChain(ids...)
	var replies []frame.Frame
	c.dir.Fallback = HandleFrameFunc(func(_ context.Context, f *frame.Frame) bool {
		replies = append(replies, *f)
		return false
	})
	req := &frame.Frame{Kind: frame.KindData, Status: 1, Sender: masterID, Target: ids[2]}
	copy(req.Payload[:], "ping")
	require.NoError(t, c.master.Send(req, Downstream))
	c.tick(10)

	require.Len(t, replies, 1)
	require.Equal(t, ids[2], replies[0].Sender)
	require.Equal(t, masterID, replies[0].Target)
	require.True(t, bytes.HasPrefix(replies[0].Payload[:], []byte("ping")))
}

func TestStatusMux(t *testing.T) {
	var got []byte
	record := func(reply bool) Handler {
		return HandleFrameFunc(func(_ context.Context, f *frame.Frame) bool {
			got = append(got, f.Status)
			return reply
		})
	}
	mux := (&StatusMux{Default: record(false)}).Handle(3, record(true))
	ctx := context.Background()
	require.True(t, mux.HandleFrame(ctx, &frame.Frame{Kind: frame.KindData, Status: 3}))
	require.False(t, mux.HandleFrame(ctx, &frame.Frame{Kind: frame.KindData, Status: 4}))
	require.False(t, mux.HandleFrame(ctx, &frame.Frame{Kind: frame.KindScan, Status: 3}))
	require.Equal(t, []byte{3, 4, 3}, got)
	require.False(t, (&StatusMux{}).HandleFrame(ctx, &frame.Frame{Kind: frame.KindData}))
}

func TestLogHandler(t *testing.T) {
	var buf bytes.Buffer
	h := &LogHandler{Writer: &buf}
	f := &frame.Frame{Kind: frame.KindData, Status: 2, Sender: masterID, Target: selfID}
	require.False(t, h.HandleFrame(withSide(context.Background(), Upstream), f))
	require.Contains(t, buf.String(), "[upstream] DATA")
	require.Contains(t, buf.String(), "from=09090909 to=01010101")
}
