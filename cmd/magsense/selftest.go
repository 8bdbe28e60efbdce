package main

import (
	"errors"

	"github.com/mklimuk/magsense/cmd/magsense/console"
	"github.com/mklimuk/magsense/hmc5883l"
	"github.com/urfave/cli/v2"
)

var selfTestCmd = cli.Command{
	Name:  "selftest",
	Usage: "run the positive bias self test",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "do not ask for confirmation",
		},
	},
	Action: func(c *cli.Context) error {
		if !c.Bool("yes") {
			answer, err := console.YesOrNo("self test temporarily reconfigures the sensor, continue?")
			if err != nil {
				return console.Exit(1, "prompt error: %s", console.Red(err))
			}
			if answer != console.Yes {
				return nil
			}
		}
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer s.Close()
		m, err := s.sensor.SelfTest(s.ctx)
		var stErr *hmc5883l.SelfTestError
		if errors.As(err, &stErr) {
			console.PInfof(console.PictoStop, "self test %s: x=%s y=%s z=%s, expected %d to %d",
				console.Red("failed"), console.Red(m.X), console.Red(m.Y), console.Red(m.Z),
				hmc5883l.SelfTestLow, hmc5883l.SelfTestHigh)
			return console.Exit(3, "self test failed")
		}
		if err != nil {
			return sensorError("run self test", err)
		}
		console.PInfof(console.PictoCheck, "self test %s: x=%s y=%s z=%s",
			console.Green("passed"), console.White(m.X), console.White(m.Y), console.White(m.Z))
		return nil
	},
}
