package hmc5883l

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selfTestDevice(status byte, value int16) *fakeDevice {
	dev := &fakeDevice{}
	dev.regs[RegConfigA] = 0x10
	dev.regs[RegConfigB] = 0x20
	dev.regs[RegMode] = 0x01
	dev.regs[RegStatus] = status
	for _, axis := range []Axis{AxisX, AxisY, AxisZ} {
		hi, lo, _ := axis.Registers()
		dev.regs[hi] = byte(uint16(value) >> 8)
		dev.regs[lo] = byte(value)
	}
	return dev
}

func assertRestored(t *testing.T, dev *fakeDevice) {
	t.Helper()
	assert.Equal(t, byte(0x10), dev.regs[RegConfigA])
	assert.Equal(t, byte(0x20), dev.regs[RegConfigB])
	assert.Equal(t, byte(0x01), dev.regs[RegMode])
}

func TestHMC5883L_SelfTest(t *testing.T) {
	tests := []struct {
		name   string
		value  int16
		passed bool
	}{
		{"typical", 400, true},
		{"low limit", SelfTestLow, true},
		{"high limit", SelfTestHigh, true},
		{"too weak", SelfTestLow - 1, false},
		{"too strong", SelfTestHigh + 1, false},
		{"overflow", OverflowValue, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dev := selfTestDevice(statusReady, test.value)

			m, err := New(dev).SelfTest(context.Background(), WithPollInterval(time.Millisecond))

			assert.Equal(t, Measurement{X: test.value, Y: test.value, Z: test.value}, m)
			if test.passed {
				assert.NoError(t, err)
			} else {
				var stErr *SelfTestError
				require.ErrorAs(t, err, &stErr)
				assert.Equal(t, m, stErr.Measurement)
			}
			assertRestored(t, dev)
		})
	}
}

func TestHMC5883L_SelfTestConfiguration(t *testing.T) {
	dev := selfTestDevice(statusReady, 400)

	_, err := New(dev).SelfTest(context.Background())
	require.NoError(t, err)

	// positive bias, 8 samples averaged, 15Hz, gain 390 and single measurements
	assert.Contains(t, dev.writes, []byte{byte(RegConfigA), 0x71})
	assert.Contains(t, dev.writes, []byte{byte(RegConfigB), 0xA0})
	assert.Contains(t, dev.writes, []byte{byte(RegMode), 0x01})
}

func TestHMC5883L_SelfTestReadyTimeout(t *testing.T) {
	dev := selfTestDevice(0x00, 400)

	_, err := New(dev).SelfTest(context.Background(),
		WithPollInterval(time.Millisecond), WithReadyTimeout(10*time.Millisecond))

	assert.ErrorIs(t, err, ErrReadyTimeout)
	assertRestored(t, dev)
}

// ctxBus fails every transaction once the call context is done, like the
// USB bridge does.
type ctxBus struct {
	*fakeDevice
}

func (b ctxBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.fakeDevice.WriteToAddr(ctx, address, buffer)
}

func (b ctxBus) WriteReadFromAddr(ctx context.Context, address byte, out []byte, in []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.fakeDevice.WriteReadFromAddr(ctx, address, out, in)
}

func TestHMC5883L_SelfTestRestoresAfterCancellation(t *testing.T) {
	dev := selfTestDevice(0x00, 400)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := New(ctxBus{dev}).SelfTest(ctx, WithPollInterval(time.Millisecond), WithReadyTimeout(time.Second))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrReadyTimeout)
	assertRestored(t, dev)
}

func TestHMC5883L_SelfTestReportsRestoreFailure(t *testing.T) {
	dev := selfTestDevice(0x00, 400)
	bus := &restoreFailingBus{fakeDevice: dev}

	_, err := New(bus).SelfTest(context.Background(),
		WithPollInterval(time.Millisecond), WithReadyTimeout(5*time.Millisecond))

	assert.ErrorIs(t, err, ErrReadyTimeout)
	assert.ErrorIs(t, err, bus.failure)
	assert.ErrorContains(t, err, "could not restore configuration")
}

// restoreFailingBus rejects every write after the self test setup, i.e. the restore.
type restoreFailingBus struct {
	*fakeDevice
	failure error
}

func (b *restoreFailingBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if b.failure == nil {
		b.failure = errors.New("nack")
	}
	// averaging, rate, bias, gain and the first single mode trigger
	if len(b.writes) >= 5 {
		return b.failure
	}
	return b.fakeDevice.WriteToAddr(ctx, address, buffer)
}
