package metrics

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/chain.go/pkg/l0/exchanger"
	"github.com/robotalks/chain.go/pkg/l0/frame"
	"github.com/robotalks/chain.go/pkg/l0/line"
)

func TestReason(t *testing.T) {
	testCases := []struct {
		err    error
		reason string
	}{
		{frame.ErrTruncated, "truncated"},
		{fmt.Errorf("%w: %v", frame.ErrTruncated, line.ErrNoData), "truncated"},
		{frame.ErrChecksum, "checksum"},
		{&frame.KindError{Kind: 9}, "kind"},
		{&frame.LengthError{Op: "write", N: 3}, "length"},
		{exchanger.ErrHeaderMutated, "handler"},
		{line.ErrOverflow, "overflow"},
		{line.ErrClosed, "closed"},
		{errors.New("broken pipe"), "io"},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.reason, Reason(tc.err), "%v", tc.err)
	}
}

func TestMetrics(t *testing.T) {
	reg := NewRegistry()
	m := New(reg)
	m.FrameRouted(exchanger.Upstream, &frame.Frame{}, exchanger.ActionRelay)
	m.FrameRouted(exchanger.Upstream, &frame.Frame{}, exchanger.ActionRelay)
	m.FrameRouted(exchanger.Downstream, &frame.Frame{}, exchanger.ActionReply)
	m.FrameError(exchanger.Downstream, frame.ErrChecksum)

	require.Equal(t, 2.0, testutil.ToFloat64(m.Frames.WithLabelValues("upstream", "relay")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Frames.WithLabelValues("downstream", "reply")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("downstream", "checksum")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), `chain_frames_total{action="relay",line="upstream"} 2`))
}
