package line

import (
	"context"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/chain.go/pkg/l0/frame"
)

func TestRing(t *testing.T) {
	r := NewRing(4)
	require.Equal(t, 3, r.Write([]byte{1, 2, 3}))
	buf := make([]byte, 2)
	require.Equal(t, 2, r.Read(buf))
	require.Equal(t, []byte{1, 2}, buf)
	require.Equal(t, 3, r.Write([]byte{4, 5, 6, 7}))
	require.Equal(t, uint64(1), r.Dropped())
	require.Equal(t, 4, r.Len())
	out := make([]byte, 8)
	require.Equal(t, 4, r.Read(out))
	require.Equal(t, []byte{3, 4, 5, 6}, out[:4])
	require.Equal(t, 0, r.Read(out))
}

func TestPair(t *testing.T) {
	a, b := Pair(frame.Size)
	require.Equal(t, 0, b.Available())
	_, err := b.ReadByte()
	require.Equal(t, ErrNoData, err)

	f := &frame.Frame{Kind: frame.KindData, Sender: frame.ID{1, 2, 3, 4}}
	n, err := f.WriteTo(a)
	require.NoError(t, err)
	require.Equal(t, int64(frame.Size), n)
	require.Equal(t, frame.Size, b.Available())
	require.Equal(t, 0, a.Available())

	_, err = f.WriteTo(a)
	require.Equal(t, ErrOverflow, err)

	decoded, err := frame.ReadFrame(b)
	require.NoError(t, err)
	require.Equal(t, *f, *decoded)

	require.NoError(t, a.Close())
	_, err = b.Write([]byte{1})
	require.Equal(t, ErrClosed, err)
}

func TestPairWriteAllOrNothing(t *testing.T) {
	a, b := Pair(frame.Size + frame.Size/2)
	first := &frame.Frame{Kind: frame.KindData, Status: 1, Sender: frame.ID{1, 2, 3, 4}}
	second := &frame.Frame{Kind: frame.KindData, Status: 2, Sender: frame.ID{1, 2, 3, 4}}
	_, err := first.WriteTo(a)
	require.NoError(t, err)
	n, err := a.Write(make([]byte, frame.Size))
	require.Equal(t, ErrOverflow, err)
	require.Zero(t, n)
	require.Equal(t, frame.Size, b.Available())

	decoded, err := frame.ReadFrame(b)
	require.NoError(t, err)
	require.Equal(t, byte(1), decoded.Status)

	_, err = second.WriteTo(a)
	require.NoError(t, err)
	decoded, err = frame.ReadFrame(b)
	require.NoError(t, err)
	require.NoError(t, decoded.Verify())
	require.Equal(t, byte(2), decoded.Status)
	require.Zero(t, b.Available())
}

func TestReadFull(t *testing.T) {
	a, b := Pair(0)
	_, err := a.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	p := make([]byte, 4)
	require.False(t, ReadFull(b, p))
	require.Equal(t, 3, b.Available())
	require.True(t, ReadFull(b, p[:3]))
	require.Equal(t, []byte{1, 2, 3}, p[:3])
}

func TestTruncatedFrameFromLine(t *testing.T) {
	a, b := Pair(0)
	_, err := a.Write([]byte{1, 2, 3, 4, 5})
	require.NoError(t, err)
	_, err = frame.ReadFrame(b)
	require.ErrorIs(t, err, frame.ErrTruncated)
}

func TestStream(t *testing.T) {
	pr, pw := io.Pipe()
	s := NewStream("pipe", struct {
		io.Reader
		io.Writer
	}{pr, io.Discard}, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	go pw.Write([]byte{1, 2, 3})
	require.Eventually(t, func() bool { return s.Available() == 3 }, time.Second, time.Millisecond)
	b, err := s.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte(1), b)

	pw.CloseWithError(io.ErrClosedPipe)
	require.Equal(t, io.ErrClosedPipe, <-errCh)
	p := make([]byte, 4)
	n, err := s.Read(p)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	_, err = s.Read(p)
	require.Equal(t, io.ErrClosedPipe, err)
}

func TestSerialConfigFromURL(t *testing.T) {
	u, err := url.Parse("serial:///dev/ttyUSB0?baud=115200&parity=e&timeout=50ms")
	require.NoError(t, err)
	conf, err := SerialConfigFromURL(u)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB0", conf.Address)
	require.Equal(t, 115200, conf.BaudRate)
	require.Equal(t, 8, conf.DataBits)
	require.Equal(t, "E", conf.Parity)
	require.Equal(t, 50*time.Millisecond, conf.Timeout)

	u, _ = url.Parse("serial:///dev/ttyS0?parity=x")
	_, err = SerialConfigFromURL(u)
	require.Error(t, err)
}

func TestOpenNone(t *testing.T) {
	s, err := Open("none", 0)
	require.NoError(t, err)
	require.Nil(t, s)
	_, err = Open("ftp://x", 0)
	require.Error(t, err)
}
