package i2c

import (
	"context"
	"fmt"
	"sync"

	"github.com/mklimuk/magsense"
	"gobot.io/x/gobot/v2/drivers/i2c"
)

var _ magsense.I2CBus = &GobotBus{}

// GobotBus adapts a gobot I2C connector (e.g. nanopi.NewNeoAdaptor) to magsense.I2CBus.
// Connections are opened lazily, one per device address.
type GobotBus struct {
	mx          sync.Mutex
	connector   i2c.Connector
	busNr       int
	connections map[byte]i2c.Connection
}

func NewGobotBus(connector i2c.Connector, busNr int) *GobotBus {
	return &GobotBus{
		connector:   connector,
		busNr:       busNr,
		connections: map[byte]i2c.Connection{},
	}
}

func (b *GobotBus) connection(address byte) (i2c.Connection, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if conn, ok := b.connections[address]; ok {
		return conn, nil
	}
	conn, err := b.connector.GetI2cConnection(int(address), b.busNr)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c connection to %x on bus %d: %w", address, b.busNr, err)
	}
	b.connections[address] = conn
	return conn, nil
}

func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	_, err = conn.Read(buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	_, err = conn.Write(buffer)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

// WriteReadFromAddr uses a block read for single byte register pointers and
// falls back to a write followed by a read otherwise.
func (b *GobotBus) WriteReadFromAddr(ctx context.Context, address byte, out []byte, in []byte) error {
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	if len(out) == 1 {
		err = conn.ReadBlockData(out[0], in)
		if err != nil {
			return fmt.Errorf("could not read block %x from i2c bus %x: %w", out[0], address, err)
		}
		return nil
	}
	_, err = conn.Write(out)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	_, err = conn.Read(in)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GobotBus) Release(ctx context.Context) error {
	return nil
}

// Close closes all opened connections.
func (b *GobotBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var firstErr error
	for addr, conn := range b.connections {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("could not close i2c connection %x: %w", addr, err)
		}
		delete(b.connections, addr)
	}
	return firstErr
}
