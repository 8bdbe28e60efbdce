package drdy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
)

var ErrNotEnabled = errors.New("drdy: listener not enabled")

// EdgePin is the part of gpio.PinIn the listener needs.
type EdgePin interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	WaitForEdge(timeout time.Duration) bool
}

var _ EdgePin = gpio.PinIn(nil)

// Handler is called for every data ready pulse with the published handle.
type Handler[T any] func(ctx context.Context, handle *T) error

type ListenerOpts struct {
	// EdgeTimeout bounds a single wait so that context cancellation is noticed.
	EdgeTimeout time.Duration
}

type ListenerOpt func(*ListenerOpts)

func WithEdgeTimeout(timeout time.Duration) ListenerOpt {
	return func(o *ListenerOpts) {
		o.EdgeTimeout = timeout
	}
}

// Listener calls a handler each time the DRDY pin pulses. The sensor pulls the
// line high and drives it low for about 250µs once new data is in the output
// registers. The driver handle must be published before the pin is armed.
type Listener[T any] struct {
	cell    Cell[T]
	pin     EdgePin
	handler Handler[T]
	enabled atomic.Bool
	opts    ListenerOpts
}

func NewListener[T any](pin EdgePin, handler Handler[T], opts ...ListenerOpt) *Listener[T] {
	config := ListenerOpts{EdgeTimeout: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(&config)
	}
	return &Listener[T]{pin: pin, handler: handler, opts: config}
}

// Publish makes the driver handle available to the handler.
func (l *Listener[T]) Publish(handle *T) error {
	return l.cell.Publish(handle)
}

// Enable arms the pin for falling edges with the pull-up enabled. It fails with
// ErrNotPublished when no handle has been published yet.
func (l *Listener[T]) Enable() error {
	if !l.cell.Published() {
		return ErrNotPublished
	}
	err := l.pin.In(gpio.PullUp, gpio.FallingEdge)
	if err != nil {
		return fmt.Errorf("drdy: could not configure pin: %w", err)
	}
	l.enabled.Store(true)
	return nil
}

// Run waits for edges until ctx is done. Handler errors are logged and do not stop the loop.
func (l *Listener[T]) Run(ctx context.Context) error {
	if !l.enabled.Load() {
		return ErrNotEnabled
	}
	handle, err := l.cell.Load()
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !l.pin.WaitForEdge(l.opts.EdgeTimeout) {
			continue
		}
		err = l.handler(ctx, handle)
		if err != nil {
			slog.WarnContext(ctx, "drdy handler failed", "error", err)
		}
	}
}
