package main

import (
	"github.com/mklimuk/magsense/cmd/magsense/console"
	"github.com/mklimuk/magsense/hmc5883l"
	"github.com/urfave/cli/v2"
)

var configureCmd = cli.Command{
	Name:  "configure",
	Usage: "write configuration and mode registers (flags override the profile)",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "averaging", Usage: "averaged samples: 1, 2, 4 or 8"},
		&cli.StringFlag{Name: "rate", Usage: "output rate in Hz: 0.75, 1.5, 3, 7.5, 15, 30 or 75"},
		&cli.StringFlag{Name: "bias", Usage: "measurement mode: normal, positive or negative"},
		&cli.StringFlag{Name: "gain", Usage: "gain in LSB/Gauss: 1370, 1090, 820, 660, 440, 390, 330 or 230"},
		&cli.StringFlag{Name: "mode", Usage: "operating mode: continuous, single or idle"},
		&cli.BoolFlag{Name: "hs", Usage: "enable high speed i2c (3400kHz)"},
	},
	Action: func(c *cli.Context) error {
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer s.Close()
		settings, err := s.cfg.Settings()
		if err != nil {
			return flagError(err)
		}
		settings, err = applyFlags(c, settings)
		if err != nil {
			return flagError(err)
		}
		err = s.sensor.Configure(s.ctx, settings)
		if err != nil {
			return sensorError("configure sensor", err)
		}
		console.PInfof(console.PictoCheck, "averaging: %s rate: %sHz bias: %s gain: %s mode: %s high speed: %s",
			console.White(settings.Averaging), console.White(settings.Rate), console.White(settings.Bias),
			console.White(settings.Gain), console.White(settings.Mode), console.Bool(settings.HighSpeed))
		return nil
	},
}

func applyFlags(c *cli.Context, settings hmc5883l.Settings) (hmc5883l.Settings, error) {
	var err error
	if c.IsSet("averaging") {
		if settings.Averaging, err = hmc5883l.ParseAveragedSamples(c.String("averaging")); err != nil {
			return settings, err
		}
	}
	if c.IsSet("rate") {
		if settings.Rate, err = hmc5883l.ParseDataRate(c.String("rate")); err != nil {
			return settings, err
		}
	}
	if c.IsSet("bias") {
		if settings.Bias, err = hmc5883l.ParseMeasurementMode(c.String("bias")); err != nil {
			return settings, err
		}
	}
	if c.IsSet("gain") {
		if settings.Gain, err = hmc5883l.ParseGain(c.String("gain")); err != nil {
			return settings, err
		}
	}
	if c.IsSet("mode") {
		if settings.Mode, err = hmc5883l.ParseOperatingMode(c.String("mode")); err != nil {
			return settings, err
		}
	}
	if c.IsSet("hs") {
		settings.HighSpeed = c.Bool("hs")
	}
	return settings, nil
}

var modeCmd = cli.Command{
	Name:      "mode",
	Usage:     "set the operating mode",
	ArgsUsage: "<continuous|single|idle>",
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return flagError(errNoArgument)
		}
		mode, err := hmc5883l.ParseOperatingMode(c.Args().First())
		if err != nil {
			return flagError(err)
		}
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer s.Close()
		err = s.sensor.SetOperatingMode(s.ctx, mode)
		if err != nil {
			return sensorError("set operating mode", err)
		}
		console.PInfof(console.PictoCheck, "operating mode: %s", console.White(mode))
		return nil
	},
}
