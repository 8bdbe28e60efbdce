package i2c

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mklimuk/magsense"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

var _ magsense.I2CBus = &GenericBus{}

// GenericBus is an I2C bus exposed by the host (e.g. /dev/i2c-1) through periph.io.
type GenericBus struct {
	bus i2c.BusCloser
}

func NewGenericBus(dev string) (*GenericBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	return &GenericBus{
		bus: bus,
	}, nil
}

// SetSpeed changes the bus clock. The sensor supports up to 400kHz.
func (b *GenericBus) SetSpeed(khz int64) error {
	err := b.bus.SetSpeed(physic.Frequency(khz) * physic.KiloHertz)
	if err != nil {
		return fmt.Errorf("could not set i2c bus speed to %dkHz: %w", khz, err)
	}
	return nil
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

// WriteReadFromAddr writes out and reads into in within one transaction (repeated start).
func (b *GenericBus) WriteReadFromAddr(ctx context.Context, address byte, out []byte, in []byte) error {
	err := b.bus.Tx(uint16(address), out, in)
	if err != nil {
		return fmt.Errorf("could not write-read i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}
