package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferToStatus(t *testing.T) {
	buf := make([]byte, reportSize)
	buf[9], buf[10] = 0x06, 0x00
	buf[11], buf[12] = 0x04, 0x00
	buf[13] = 2
	buf[14] = 27
	buf[15] = 10
	buf[16], buf[17] = 0x3C, 0x00
	buf[25] = 1

	status := bufferToStatus(buf)

	assert.Equal(t, &MCP2221Status{
		I2CDataBufferCounter:   2,
		I2CSpeedDivider:        27,
		I2CTimeout:             10,
		CurrentAddress:         "3c00",
		LastWriteRequestedSize: 6,
		LastWriteSentSize:      4,
		ReadPending:            1,
	}, status)
}

func TestCopyReadData(t *testing.T) {
	response := make([]byte, reportSize)
	response[3] = 3
	copy(response[4:], []byte{'H', '4', '3', 0xFF})

	buf := make([]byte, 3)
	require.NoError(t, copyReadData(response, buf))
	assert.Equal(t, []byte("H43"), buf)

	assert.Error(t, copyReadData(response, make([]byte, 6)))

	response[3] = responseInvalidLength
	assert.Error(t, copyReadData(response, make([]byte, 3)))

	response[1] = responseReadError
	assert.ErrorContains(t, copyReadData(response, buf), "I2C engine")
}

func TestSpeedDivider(t *testing.T) {
	assert.Equal(t, byte(27), speedDivider(400))
	assert.Equal(t, byte(117), speedDivider(100))
}

func TestResetBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	resetBuffer(buf)
	assert.Equal(t, []byte{0, 0, 0, 0}, buf)
}

func TestBufferToGPIOValues(t *testing.T) {
	buf := make([]byte, reportSize)
	// GP0 output high, GP1 input low, GP2 not GPIO, GP3 input high
	copy(buf[2:], []byte{1, 0, 0, 1, 0, 0xEF, 1, 1})

	values := bufferToGPIOValues(buf)

	assert.Equal(t, GPIOModeOut, values.GPIO0Mode)
	assert.Equal(t, byte(1), values.Value(0))
	assert.Equal(t, GPIOModeIn, values.GPIO1Mode)
	assert.Equal(t, byte(0), values.Value(1))
	assert.Equal(t, GPIOModeNoOperation, values.GPIO2Mode)
	assert.Equal(t, GPIOModeIn, values.GPIO3Mode)
	assert.Equal(t, byte(1), values.Value(3))
	assert.Equal(t, byte(0), values.Value(7))
}

func TestGPIOParameters(t *testing.T) {
	buf := make([]byte, reportSize)
	buf[22] = byte(GPIOModeOut) | byte(GPIO0SSPND)
	buf[23] = byte(GPIOModeIn) | byte(GPIO1InterruptDetection)
	buf[24] = byte(GPIOModeIn)
	buf[25] = byte(GPIOModeOut)

	params := bufferToGPIOParameters(buf)
	assert.Equal(t, GPIO0SSPND, params.GPIO0Designation)
	assert.Equal(t, GPIOModeIn, params.GPIO1Mode)
	assert.Equal(t, GPIO1InterruptDetection, params.GPIO1Designation)
	assert.Equal(t, GPIOModeOut, params.GPIO3Mode)
}
