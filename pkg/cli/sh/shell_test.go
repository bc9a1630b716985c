package sh

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/chain.go/pkg/framework"
	"github.com/robotalks/chain.go/pkg/l0/exchanger"
	"github.com/robotalks/chain.go/pkg/l0/frame"
	"github.com/robotalks/chain.go/pkg/l0/line"
)

var masterID = frame.ID{0xff, 0, 0, 1}

func newTestShell(t *testing.T, ids ...frame.ID) *Shell {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	master := exchanger.New(masterID, nil)
	// built from the far end: each device's upstream pairs with the
	// downstream of the one before it.
	var next exchanger.Line
	for n := len(ids) - 1; n >= 0; n-- {
		near, far := line.Pair(0)
		dev := exchanger.New(ids[n], exchanger.EchoHandler{}).WithLines(far, next)
		loop := fx.NewLoop()
		loop.Interval = time.Millisecond
		go loop.Add(dev).Run(ctx)
		next = near
	}
	master.WithLines(nil, next)

	s := New(nil).WithExchanger(master)
	s.Wait = 200 * time.Millisecond
	require.NoError(t, s.Start(ctx))
	t.Cleanup(s.Stop)
	return s
}

func TestScanAndSend(t *testing.T) {
	ids := []frame.ID{{1, 0, 0, 1}, {1, 0, 0, 2}}
	s := newTestShell(t, ids...)

	devices, err := s.Scan(exchanger.Downstream)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	for n, dev := range devices {
		require.Equal(t, ids[n], dev.ID)
		require.Equal(t, n+1, dev.Position)
	}

	reply, err := s.Send(ids[1], 3, []byte{7, 7})
	require.NoError(t, err)
	require.NotNil(t, reply)
	require.Equal(t, frame.KindData, reply.Kind)
	require.Equal(t, ids[1], reply.Sender)
	require.Equal(t, masterID, reply.Target)
	require.Equal(t, byte(3), reply.Status)
	require.Equal(t, []byte{7, 7, 0}, reply.Payload[:3])
}

func TestSendUnknownDevice(t *testing.T) {
	s := newTestShell(t)
	_, err := s.Send(frame.ID{9, 9, 9, 9}, 0, nil)
	require.Error(t, err)
}

func TestParseArgs(t *testing.T) {
	side, err := ParseSide("up")
	require.NoError(t, err)
	require.Equal(t, exchanger.Upstream, side)
	side, err = ParseSide("Downstream")
	require.NoError(t, err)
	require.Equal(t, exchanger.Downstream, side)
	_, err = ParseSide("left")
	require.Error(t, err)

	status, err := ParseStatus("0x1f")
	require.NoError(t, err)
	require.Equal(t, byte(0x1f), status)
	_, err = ParseStatus("256")
	require.Error(t, err)

	payload, err := ParsePayload("07:07-ff")
	require.NoError(t, err)
	require.Equal(t, []byte{7, 7, 0xff}, payload)
	_, err = ParsePayload("zz")
	require.Error(t, err)
	_, err = ParsePayload("000102030405060708090a0b0c0d0e0f10")
	require.Error(t, err)
}
