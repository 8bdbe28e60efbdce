package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/mklimuk/magsense"
	"github.com/mklimuk/magsense/adapter"
	"github.com/mklimuk/magsense/cmd/magsense/console"
	"github.com/mklimuk/magsense/config"
	"github.com/mklimuk/magsense/hmc5883l"
	"github.com/mklimuk/magsense/i2c"
	"github.com/mklimuk/magsense/snsctx"
	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging and bus frame dumps",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "yaml profile",
			EnvVars: []string{"MAGSENSE_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "adapter",
			Aliases: []string{"a"},
			Usage:   "bus adapter: mcp2221, generic or nanopi",
		},
		&cli.StringFlag{
			Name:  "device",
			Usage: "i2c device of the generic adapter",
		},
		&cli.IntFlag{
			Name:  "bus",
			Usage: "i2c bus number of the nanopi adapter",
		},
		&cli.IntFlag{
			Name:  "speed-khz",
			Usage: "i2c clock",
		},
		&cli.IntFlag{
			Name:  "retries",
			Usage: "retries of transactions rejected by a busy bus",
		},
	}
}

// loadConfig merges the profile with command line flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return cfg, err
		}
	}
	if c.IsSet("adapter") {
		cfg.Bus.Adapter = c.String("adapter")
	}
	if c.IsSet("device") {
		cfg.Bus.Device = c.String("device")
	}
	if c.IsSet("bus") {
		cfg.Bus.Number = c.Int("bus")
	}
	if c.IsSet("speed-khz") {
		cfg.Bus.SpeedKHz = c.Int("speed-khz")
	}
	if c.IsSet("retries") {
		cfg.Bus.Retries = c.Int("retries")
	}
	return cfg, cfg.Validate()
}

type session struct {
	cfg    config.Config
	ctx    context.Context
	bus    magsense.I2CBus
	mcp    *adapter.MCP2221
	sensor *hmc5883l.HMC5883L
	close  func() error
}

func (s *session) Close() {
	if s.close == nil {
		return
	}
	if err := s.close(); err != nil {
		console.Warnf("could not close bus: %s", err)
	}
}

// openSession opens the configured bus. Callers must Close the session.
func openSession(c *cli.Context) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, console.Exit(2, "configuration error: %s", console.Red(err))
	}
	ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
	s := &session{cfg: cfg, ctx: ctx}
	var bus magsense.I2CBus
	switch cfg.Bus.Adapter {
	case config.AdapterMCP2221:
		s.mcp = adapter.NewMCP2221()
		err = s.mcp.SetSpeed(ctx, cfg.Bus.SpeedKHz)
		bus = s.mcp
	case config.AdapterGeneric:
		var generic *i2c.GenericBus
		generic, err = i2c.NewGenericBus(cfg.Bus.Device)
		if err == nil {
			s.close = generic.Close
			err = generic.SetSpeed(int64(cfg.Bus.SpeedKHz))
		}
		bus = generic
	case config.AdapterNanoPi:
		npi := nanopi.NewNeoAdaptor()
		err = npi.I2cBusAdaptor.Connect()
		if err == nil {
			gobotBus := i2c.NewGobotBus(npi, cfg.Bus.Number)
			s.close = func() error {
				return errors.Join(gobotBus.Close(), npi.I2cBusAdaptor.Finalize())
			}
			bus = gobotBus
		}
	}
	if err != nil {
		s.Close()
		return nil, console.Exit(1, "could not open %s bus: %s", cfg.Bus.Adapter, console.Red(err))
	}
	if cfg.Bus.Retries > 0 {
		bus = i2c.NewRetryBus(bus, cfg.Bus.Retries+1)
	}
	s.bus = bus
	s.sensor = hmc5883l.New(bus)
	return s, nil
}

func sensorError(action string, err error) cli.ExitCoder {
	return console.Exit(1, "could not %s: %s", action, console.Red(err))
}

func flagError(err error) cli.ExitCoder {
	return console.Exit(2, "%s", console.Red(err))
}

var errNoArgument = fmt.Errorf("missing argument")
