package drdy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
)

type fakePin struct {
	mx    sync.Mutex
	pull  gpio.Pull
	edge  gpio.Edge
	armed bool
	err   error
	edges chan struct{}
}

func newFakePin() *fakePin {
	return &fakePin{edges: make(chan struct{}, 8)}
}

func (p *fakePin) In(pull gpio.Pull, edge gpio.Edge) error {
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.err != nil {
		return p.err
	}
	p.pull, p.edge, p.armed = pull, edge, true
	return nil
}

func (p *fakePin) WaitForEdge(timeout time.Duration) bool {
	select {
	case <-p.edges:
		return true
	case <-time.After(timeout):
		return false
	}
}

func TestListener_EnableRequiresPublish(t *testing.T) {
	pin := newFakePin()
	l := NewListener[handle](pin, func(ctx context.Context, h *handle) error { return nil })

	assert.ErrorIs(t, l.Enable(), ErrNotPublished)
	assert.False(t, pin.armed)

	require.NoError(t, l.Publish(&handle{}))
	require.NoError(t, l.Enable())
	assert.True(t, pin.armed)
	// DRDY idles high and pulses low
	assert.Equal(t, gpio.PullUp, pin.pull)
	assert.Equal(t, gpio.FallingEdge, pin.edge)
}

func TestListener_EnablePinError(t *testing.T) {
	pin := newFakePin()
	pin.err = errors.New("pin busy")
	l := NewListener[handle](pin, func(ctx context.Context, h *handle) error { return nil })
	require.NoError(t, l.Publish(&handle{}))

	assert.ErrorIs(t, l.Enable(), pin.err)

	err := l.Run(context.Background())
	assert.ErrorIs(t, err, ErrNotEnabled)
}

func TestListener_RunRequiresEnable(t *testing.T) {
	l := NewListener[handle](newFakePin(), func(ctx context.Context, h *handle) error { return nil })
	assert.ErrorIs(t, l.Run(context.Background()), ErrNotEnabled)
}

func TestListener_Run(t *testing.T) {
	pin := newFakePin()
	published := &handle{name: "sensor"}
	calls := make(chan *handle, 8)
	var n atomic.Int32
	l := NewListener[handle](pin, func(ctx context.Context, h *handle) error {
		calls <- h
		if n.Add(1) == 1 {
			return errors.New("read failed")
		}
		return nil
	}, WithEdgeTimeout(time.Millisecond))
	require.NoError(t, l.Publish(published))
	require.NoError(t, l.Enable())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- l.Run(ctx)
	}()

	pin.edges <- struct{}{}
	pin.edges <- struct{}{}
	for i := 0; i < 2; i++ {
		select {
		case h := <-calls:
			assert.Same(t, published, h)
		case <-time.After(time.Second):
			t.Fatal("handler not called")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}
}
