package client

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerRefreshesUntilStopped(t *testing.T) {
	var n int32
	p := NewPoller(func(context.Context) error {
		atomic.AddInt32(&n, 1)
		return nil
	}, WithInterval(5*time.Millisecond))

	require.NoError(t, p.Start(context.Background()))
	assert.ErrorIs(t, p.Start(context.Background()), ErrPollerRunning)
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&n) >= 3 }, time.Second, time.Millisecond)

	p.Stop()
	assert.False(t, p.Running())
	stopped := atomic.LoadInt32(&n)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, atomic.LoadInt32(&n))

	p.Stop() // no-op
	require.NoError(t, p.Start(context.Background()))
	p.Stop()
}

func TestPollerStopsWithParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller(func(context.Context) error { return nil }, WithInterval(time.Millisecond))
	require.NoError(t, p.Start(ctx))
	cancel()
	assert.Eventually(t, func() bool { return !p.Running() }, time.Second, time.Millisecond)
}

func TestPollerReportsErrors(t *testing.T) {
	boom := errors.New("portal down")
	errs := make(chan error, 1)
	p := NewPoller(func(context.Context) error { return boom },
		WithInterval(time.Hour),
		OnError(func(err error) {
			select {
			case errs <- err:
			default:
			}
		}),
	)
	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("refresh error not reported")
	}
}
