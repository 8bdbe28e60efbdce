package hmc5883l

import (
	"context"
)

// Settings is a complete device configuration.
type Settings struct {
	Averaging AveragedSamples
	Rate      DataRate
	Bias      MeasurementMode
	Gain      Gain
	Mode      OperatingMode
	HighSpeed bool
}

// DefaultSettings returns the power-on register defaults
// (CRA 0x10, CRB 0x20, MR 0x01).
func DefaultSettings() Settings {
	return Settings{
		Averaging: Samples1,
		Rate:      Rate15Hz,
		Bias:      BiasNormal,
		Gain:      Gain1090,
		Mode:      ModeSingle,
	}
}

// Configure applies all settings, operating mode last so that acquisition
// starts with the new configuration. The first failing step aborts.
func (s *HMC5883L) Configure(ctx context.Context, settings Settings) error {
	if err := s.SetAveragedSamples(ctx, settings.Averaging); err != nil {
		return err
	}
	if err := s.SetOutputDataRate(ctx, settings.Rate); err != nil {
		return err
	}
	if err := s.SetMeasurementMode(ctx, settings.Bias); err != nil {
		return err
	}
	if err := s.SetGain(ctx, settings.Gain); err != nil {
		return err
	}
	if err := s.SetHighSpeed(ctx, settings.HighSpeed); err != nil {
		return err
	}
	return s.SetOperatingMode(ctx, settings.Mode)
}
