package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/mklimuk/magsense/hmc5883l"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTinyGoBus_Transactions(t *testing.T) {
	dev := &MockTinyGoI2C{}
	dev.On("Tx", uint16(0x1E), []byte{0x03}, mock.Anything).Return([]byte{0x00, 0x01, 0x00, 0x03, 0x00, 0x02}, nil).Once()

	sensor := hmc5883l.New(NewTinyGoBus(dev))
	x, y, z, err := sensor.GetAngles(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []int16{1, 2, 3}, []int16{x, y, z})
	dev.AssertExpectations(t)
}

func TestTinyGoBus_Write(t *testing.T) {
	dev := &MockTinyGoI2C{}
	dev.On("Tx", uint16(0x1E), []byte{0x01, 0x20}, []byte(nil)).Return(nil, nil).Once()

	err := hmc5883l.New(NewTinyGoBus(dev)).SetGain(context.Background(), hmc5883l.Gain1090)

	require.NoError(t, err)
	dev.AssertExpectations(t)
}

func TestTinyGoBus_Error(t *testing.T) {
	dev := &MockTinyGoI2C{}
	nack := errors.New("nack")
	dev.On("Tx", uint16(0x1E), mock.Anything, mock.Anything).Return(nil, nack)

	err := NewTinyGoBus(dev).ReadFromAddr(context.Background(), 0x1E, make([]byte, 1))

	assert.ErrorIs(t, err, nack)
}
