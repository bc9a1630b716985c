package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopPriorityOrder(t *testing.T) {
	var order []int
	record := func(n int) Controller {
		return ControlFunc(func(cc ControlContext) error {
			order = append(order, n)
			require.Equal(t, uint64(1), cc.Iteration())
			return nil
		})
	}
	loop := NewLoop()
	loop.AddController(PrLvLow, record(3))
	loop.AddController(PrLvRoute, record(1), record(2))
	loop.RunIteration(context.Background())
	require.Equal(t, []int{1, 2, 3}, order)
}

func TestLoopRunAndCancel(t *testing.T) {
	loop := NewLoop()
	loop.Interval = time.Millisecond
	ticks := make(chan uint64, 16)
	loop.AddController(PrLvNormal, ControlFunc(func(cc ControlContext) error {
		select {
		case ticks <- cc.Iteration():
		default:
		}
		return nil
	}))
	started := make(chan struct{})
	loop.AddRunnable(RunFunc(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()
	<-started
	require.Equal(t, uint64(1), <-ticks)
	require.Equal(t, uint64(2), <-ticks)
	cancel()
	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("loop didn't stop")
	}
}

func TestRunnerAggregatesErrors(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	r := NewRunner().Go(
		RunFunc(func(context.Context) error { return errA }),
		RunFunc(func(context.Context) error { return context.Canceled }),
		NamedRun("b", RunFunc(func(context.Context) error { return errB })),
	)
	err := r.Wait()
	require.Error(t, err)
	agg, ok := err.(*AggregatedError)
	require.True(t, ok)
	require.ElementsMatch(t, []error{errA, errB}, agg.Errors)
}

func TestRunWithContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	unblock := make(chan struct{})
	cancel()
	err := RunWithContextCancel(ctx, func() { close(unblock) }, func() error {
		<-unblock
		return nil
	})
	require.Equal(t, context.Canceled, err)
}
