package i2c

import (
	"context"
	"fmt"

	"github.com/mklimuk/magsense"
	"tinygo.org/x/drivers"
)

var _ magsense.I2CBus = &TinyGoBus{}

// TinyGoBus adapts a TinyGo drivers.I2C (e.g. machine.I2C0) to magsense.I2CBus.
type TinyGoBus struct {
	bus drivers.I2C
}

func NewTinyGoBus(bus drivers.I2C) *TinyGoBus {
	return &TinyGoBus{bus: bus}
}

func (b *TinyGoBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *TinyGoBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *TinyGoBus) WriteReadFromAddr(ctx context.Context, address byte, out []byte, in []byte) error {
	err := b.bus.Tx(uint16(address), out, in)
	if err != nil {
		return fmt.Errorf("could not write-read i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *TinyGoBus) Release(ctx context.Context) error {
	return nil
}
