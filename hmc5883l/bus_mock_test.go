package hmc5883l

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/mock"
)

// MockI2CBus is a mock implementation of magsense.I2CBus using testify/mock
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) WriteReadFromAddr(ctx context.Context, address byte, out []byte, in []byte) error {
	args := m.Called(ctx, address, out, in)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(in) {
		copy(in, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// expectRegisterRead sets up a single register read returning value.
func (m *MockI2CBus) expectRegisterRead(reg Register, value byte) *mock.Call {
	return m.On("WriteReadFromAddr", mock.Anything, byte(Address), []byte{byte(reg)}, mock.Anything).
		Return([]byte{value}, nil).Once()
}

// fakeDevice emulates the register file of the sensor with an auto-incrementing
// register pointer.
type fakeDevice struct {
	regs   [13]byte
	writes [][]byte
	reads  int
}

func (d *fakeDevice) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if address != Address {
		return fmt.Errorf("no device at %#x", address)
	}
	d.writes = append(d.writes, append([]byte(nil), buffer...))
	if len(buffer) == 2 {
		d.regs[buffer[0]] = buffer[1]
	}
	return nil
}

func (d *fakeDevice) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	return fmt.Errorf("read without register pointer")
}

func (d *fakeDevice) WriteReadFromAddr(ctx context.Context, address byte, out []byte, in []byte) error {
	if address != Address {
		return fmt.Errorf("no device at %#x", address)
	}
	d.reads++
	ptr := int(out[0])
	for i := range in {
		if ptr+i >= len(d.regs) {
			return fmt.Errorf("register %#x out of range", ptr+i)
		}
		in[i] = d.regs[ptr+i]
	}
	return nil
}

func (d *fakeDevice) Release(ctx context.Context) error {
	return nil
}
