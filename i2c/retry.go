package i2c

import (
	"context"
	"errors"
	"fmt"

	"github.com/mklimuk/magsense"
)

var _ magsense.I2CBus = &RetryBus{}

// RetryBus repeats transactions that failed with magsense.ErrBusBusy, releasing
// the bus before each new attempt. Other errors are returned immediately.
type RetryBus struct {
	bus        magsense.I2CBus
	retryLimit int
}

func NewRetryBus(bus magsense.I2CBus, retryLimit int) *RetryBus {
	if retryLimit < 1 {
		retryLimit = 1
	}
	return &RetryBus{bus: bus, retryLimit: retryLimit}
}

func (b *RetryBus) do(ctx context.Context, op func() error) error {
	var err error
	for i := b.retryLimit; i > 0; i-- {
		err = op()
		if err == nil {
			return nil
		}
		if !errors.Is(err, magsense.ErrBusBusy) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// try to release the bus
		_ = b.bus.Release(ctx)
	}
	return fmt.Errorf("retry limit reached: %w", err)
}

func (b *RetryBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	return b.do(ctx, func() error {
		return b.bus.ReadFromAddr(ctx, address, buffer)
	})
}

func (b *RetryBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	return b.do(ctx, func() error {
		return b.bus.WriteToAddr(ctx, address, buffer)
	})
}

func (b *RetryBus) WriteReadFromAddr(ctx context.Context, address byte, out []byte, in []byte) error {
	return b.do(ctx, func() error {
		return b.bus.WriteReadFromAddr(ctx, address, out, in)
	})
}

func (b *RetryBus) Release(ctx context.Context) error {
	return b.bus.Release(ctx)
}
