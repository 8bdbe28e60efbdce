package i2c

import (
	"context"

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

// MockTinyGoI2C records drivers.I2C transactions.
type MockTinyGoI2C struct {
	mock.Mock
}

func (m *MockTinyGoI2C) Tx(addr uint16, w, r []byte) error {
	args := m.Called(addr, w, r)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(r) {
		copy(r, data)
	}
	return args.Error(1)
}
