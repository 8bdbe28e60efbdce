package main

import (
	"context"
	"errors"

	"github.com/mklimuk/magsense/cmd/magsense/console"
	"github.com/mklimuk/magsense/hmc5883l"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

type statusReport struct {
	ID        string `yaml:"id"`
	Genuine   bool   `yaml:"genuine"`
	Ready     bool   `yaml:"ready"`
	Locked    bool   `yaml:"locked"`
	HighSpeed bool   `yaml:"high_speed"`
	Mode      string `yaml:"mode"`
	Averaging string `yaml:"averaging"`
	Rate      string `yaml:"rate_hz"`
	Bias      string `yaml:"bias"`
	Gain      string `yaml:"gain"`
}

var statusCmd = cli.Command{
	Name:  "status",
	Usage: "print identification, status and configuration registers",
	Action: func(c *cli.Context) error {
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer s.Close()
		report, err := readStatus(s.ctx, s.sensor)
		if err != nil {
			return sensorError("read status", err)
		}
		enc := yaml.NewEncoder(console.Writer())
		defer enc.Close()
		err = enc.Encode(report)
		if err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		return nil
	},
}

func readStatus(ctx context.Context, sensor *hmc5883l.HMC5883L) (statusReport, error) {
	var r statusReport
	id, err := sensor.Identify(ctx)
	if err != nil {
		return r, err
	}
	r.ID, r.Genuine = id.String(), id.Valid()
	if r.Ready, err = sensor.IsReady(ctx); err != nil {
		return r, err
	}
	if r.Locked, err = sensor.IsLocked(ctx); err != nil {
		return r, err
	}
	if r.HighSpeed, err = sensor.IsHighSpeed(ctx); err != nil {
		return r, err
	}
	mode, err := sensor.GetOperatingMode(ctx)
	if err != nil {
		return r, err
	}
	r.Mode = mode.String()
	averaging, err := sensor.GetAveragedSamples(ctx)
	if r.Averaging, err = describe(averaging, err); err != nil {
		return r, err
	}
	rate, err := sensor.GetOutputDataRate(ctx)
	if r.Rate, err = describe(rate, err); err != nil {
		return r, err
	}
	bias, err := sensor.GetMeasurementMode(ctx)
	if r.Bias, err = describe(bias, err); err != nil {
		return r, err
	}
	gain, err := sensor.GetGain(ctx)
	if r.Gain, err = describe(gain, err); err != nil {
		return r, err
	}
	return r, nil
}

// describe renders a read-back, reporting reserved patterns instead of failing.
func describe[T interface{ String() string }](v T, err error) (string, error) {
	var decErr *hmc5883l.DecodeError
	if errors.As(err, &decErr) {
		return "reserved", nil
	}
	if err != nil {
		return "", err
	}
	return v.String(), nil
}
