package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mklimuk/magsense/cmd/magsense/console"
	"github.com/mklimuk/magsense/hmc5883l"
	"github.com/mklimuk/magsense/stream"
	"github.com/urfave/cli/v2"
)

var readCmd = cli.Command{
	Name:  "read",
	Usage: "read the data output registers",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "axis",
			Usage: "read a single axis: x, y or z",
		},
		&cli.IntFlag{
			Name:  "count",
			Value: 1,
			Usage: "number of readings, 0 reads until interrupted",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "time between readings (defaults to the profile interval)",
		},
		&cli.BoolFlag{
			Name:  "gauss",
			Usage: "print field strength in gauss using the configured gain",
		},
	},
	Action: func(c *cli.Context) error {
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer s.Close()
		interval := s.cfg.Interval
		if c.IsSet("interval") {
			interval = c.Duration("interval")
		}
		if c.IsSet("axis") {
			axis, err := parseAxis(c.String("axis"))
			if err != nil {
				return flagError(err)
			}
			return readAxis(s.ctx, s.sensor, axis, c.Int("count"), interval)
		}
		opts := []stream.PollOpt{stream.WithInterval(interval), stream.WithCount(c.Int("count"))}
		if c.Bool("gauss") {
			gain, err := s.sensor.GetGain(s.ctx)
			if err != nil {
				return sensorError("read gain", err)
			}
			opts = append(opts, stream.WithGain(gain))
		}
		err = stream.Poll(s.ctx, s.sensor, stream.SinkFunc(printSample), opts...)
		if err != nil {
			return sensorError("read measurements", err)
		}
		return nil
	},
}

func parseAxis(s string) (hmc5883l.Axis, error) {
	switch strings.ToLower(s) {
	case "x":
		return hmc5883l.AxisX, nil
	case "y":
		return hmc5883l.AxisY, nil
	case "z":
		return hmc5883l.AxisZ, nil
	default:
		return 0, fmt.Errorf("unknown axis %q", s)
	}
}

func readAxis(ctx context.Context, sensor *hmc5883l.HMC5883L, axis hmc5883l.Axis, count int, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for i := 0; count == 0 || i < count; i++ {
		if i > 0 {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return nil
			}
		}
		v, err := sensor.GetAngle(ctx, axis)
		if err != nil {
			return sensorError("read "+axis.String(), err)
		}
		if v == hmc5883l.OverflowValue {
			console.Warnf("%s overflow", axis)
			continue
		}
		console.Printf("%s: %s\n", axis, console.White(v))
	}
	return nil
}

func printSample(ctx context.Context, sample stream.Sample) error {
	if sample.Overflow {
		console.Warnf("overflow: x=%d y=%d z=%d", sample.X, sample.Y, sample.Z)
		return nil
	}
	line := fmt.Sprintf("x: %s y: %s z: %s heading: %s",
		console.White(sample.X), console.White(sample.Y), console.White(sample.Z),
		console.White(fmt.Sprintf("%.1f°", sample.Heading)))
	if sample.Gauss != nil {
		line += fmt.Sprintf(" gauss: %s", console.White(fmt.Sprintf("%.3f/%.3f/%.3f", sample.Gauss.X, sample.Gauss.Y, sample.Gauss.Z)))
	}
	console.PInfof(console.PictoCompass, "%s", line)
	return nil
}
