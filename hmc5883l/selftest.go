package hmc5883l

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Self test output limits in counts for gain 390 LSB/Gauss (datasheet: 1.16 Ga bias field).
const (
	SelfTestLow  = 243
	SelfTestHigh = 575
)

var ErrReadyTimeout = errors.New("hmc5883l: timed out waiting for data ready")

// restoreTimeout bounds writing back the saved configuration.
const restoreTimeout = time.Second

// SelfTestError is returned when one of the axes is outside the self test limits.
type SelfTestError struct {
	Measurement Measurement
}

func (e *SelfTestError) Error() string {
	return fmt.Sprintf("hmc5883l: self test failed: x=%d y=%d z=%d outside [%d, %d]",
		e.Measurement.X, e.Measurement.Y, e.Measurement.Z, SelfTestLow, SelfTestHigh)
}

type SelfTestOpts struct {
	PollInterval time.Duration
	ReadyTimeout time.Duration
}

type SelfTestOpt func(*SelfTestOpts)

func WithPollInterval(interval time.Duration) SelfTestOpt {
	return func(o *SelfTestOpts) {
		o.PollInterval = interval
	}
}

func WithReadyTimeout(timeout time.Duration) SelfTestOpt {
	return func(o *SelfTestOpts) {
		o.ReadyTimeout = timeout
	}
}

// SelfTest runs the positive bias self test: the internal strap drives a known
// field on all axes, two single measurements are taken at gain 390 and the
// second one is checked against the limits. Configuration and mode registers
// are restored afterwards, also when the test fails.
func (s *HMC5883L) SelfTest(ctx context.Context, opts ...SelfTestOpt) (m Measurement, err error) {
	config := SelfTestOpts{
		PollInterval: 5 * time.Millisecond,
		ReadyTimeout: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&config)
	}

	saved := make([]byte, 3)
	err = s.transport.WriteReadFromAddr(ctx, Address, []byte{byte(RegConfigA)}, saved)
	if err != nil {
		return m, fmt.Errorf("hmc5883l: could not save configuration: %w", err)
	}
	defer func() {
		// the device must be restored even when ctx is already done
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), restoreTimeout)
		defer cancel()
		if rerr := s.restore(rctx, saved); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()

	if err = s.SetAveragedSamples(ctx, Samples8); err != nil {
		return m, err
	}
	if err = s.SetOutputDataRate(ctx, Rate15Hz); err != nil {
		return m, err
	}
	if err = s.SetMeasurementMode(ctx, BiasPositive); err != nil {
		return m, err
	}
	if err = s.SetGain(ctx, Gain390); err != nil {
		return m, err
	}
	// the first conversion after a gain change still uses the previous gain
	for range 2 {
		if err = s.SetOperatingMode(ctx, ModeSingle); err != nil {
			return m, err
		}
		if err = s.waitReady(ctx, config); err != nil {
			return m, err
		}
		m.X, m.Y, m.Z, err = s.GetAngles(ctx)
		if err != nil {
			return m, err
		}
	}
	for _, v := range []int16{m.X, m.Y, m.Z} {
		if v < SelfTestLow || v > SelfTestHigh {
			return m, &SelfTestError{Measurement: m}
		}
	}
	return m, nil
}

// waitReady polls the RDY bit until it is set or the ready timeout expires.
// Cancellation of the parent context is returned as is.
func (s *HMC5883L) waitReady(parent context.Context, config SelfTestOpts) error {
	ctx, cancel := context.WithTimeout(parent, config.ReadyTimeout)
	defer cancel()
	ticker := time.NewTicker(config.PollInterval)
	defer ticker.Stop()
	for {
		ready, err := s.IsReady(ctx)
		if err != nil {
			if parent.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
				return ErrReadyTimeout
			}
			return err
		}
		if ready {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			if perr := parent.Err(); perr != nil {
				return perr
			}
			return ErrReadyTimeout
		}
	}
}

// restore writes back configuration A, B and the mode register.
func (s *HMC5883L) restore(ctx context.Context, saved []byte) error {
	for i, reg := range []Register{RegConfigA, RegConfigB, RegMode} {
		err := s.writeRegister(ctx, reg, saved[i])
		if err != nil {
			return fmt.Errorf("hmc5883l: could not restore configuration: %w", err)
		}
	}
	return nil
}
