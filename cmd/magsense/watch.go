package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/mklimuk/magsense/cmd/magsense/console"
	"github.com/mklimuk/magsense/drdy"
	"github.com/mklimuk/magsense/hmc5883l"
	"github.com/mklimuk/magsense/stream"
	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var watchCmd = cli.Command{
	Name:  "watch",
	Usage: "stream measurements driven by the DRDY pin or polling",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "pin",
			Usage: "DRDY pin: host gpio name, e.g. GPIO17",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "polling interval when no pin is given",
		},
		&cli.BoolFlag{
			Name:  "mqtt",
			Usage: "publish samples to the configured mqtt broker",
		},
		&cli.StringFlag{
			Name:  "broker",
			Usage: "mqtt broker url, e.g. tcp://localhost:1883",
		},
		&cli.StringFlag{
			Name:  "topic",
			Usage: "mqtt topic",
		},
	},
	Action: func(c *cli.Context) error {
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer s.Close()
		if c.IsSet("pin") {
			s.cfg.DRDY.Pin = c.String("pin")
		}
		if c.IsSet("interval") {
			s.cfg.Interval = c.Duration("interval")
		}
		if c.IsSet("broker") {
			s.cfg.MQTT.Broker = c.String("broker")
		}
		if c.IsSet("topic") {
			s.cfg.MQTT.Topic = c.String("topic")
		}
		if err = s.cfg.Validate(); err != nil {
			return flagError(err)
		}

		var sink stream.Sink = stream.NewLogSink(slog.Default())
		if c.Bool("mqtt") {
			mqttSink, err := stream.NewMQTTSink(s.cfg.MQTTOpts())
			if err != nil {
				return console.Exit(1, "could not connect to broker: %s", console.Red(err))
			}
			defer mqttSink.Close()
			sink = mqttSink
		}

		gain, err := s.sensor.GetGain(s.ctx)
		if err != nil {
			return sensorError("read gain", err)
		}
		ctx, stop := signal.NotifyContext(s.ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if s.cfg.DRDY.Pin == "" {
			err = stream.Poll(ctx, s.sensor, sink, stream.WithInterval(s.cfg.Interval), stream.WithGain(gain))
		} else {
			err = watchDataReady(ctx, s, sink, gain)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			return sensorError("watch measurements", err)
		}
		return nil
	},
}

// watchDataReady reads a sample on every falling edge of the DRDY pin. In single
// measurement mode the next conversion is triggered after each read.
func watchDataReady(ctx context.Context, s *session, sink stream.Sink, gain hmc5883l.Gain) error {
	pin, err := drdyPin(s)
	if err != nil {
		return err
	}
	settings, err := s.cfg.Settings()
	if err != nil {
		return err
	}
	single := settings.Mode == hmc5883l.ModeSingle
	listener := drdy.NewListener[hmc5883l.HMC5883L](pin, func(ctx context.Context, sensor *hmc5883l.HMC5883L) error {
		sample, err := stream.Read(ctx, sensor, &gain)
		if err != nil {
			return err
		}
		if err = sink.Write(ctx, sample); err != nil {
			return err
		}
		if single {
			return sensor.SetOperatingMode(ctx, hmc5883l.ModeSingle)
		}
		return nil
	})
	if err = listener.Publish(s.sensor); err != nil {
		return err
	}
	if err = listener.Enable(); err != nil {
		return err
	}
	if single {
		if err = s.sensor.SetOperatingMode(ctx, hmc5883l.ModeSingle); err != nil {
			return err
		}
	}
	slog.InfoContext(ctx, "waiting for data ready", "pin", s.cfg.DRDY.Pin)
	return listener.Run(ctx)
}

func drdyPin(s *session) (drdy.EdgePin, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	pin := gpioreg.ByName(s.cfg.DRDY.Pin)
	if pin == nil {
		return nil, fmt.Errorf("no gpio pin %s", s.cfg.DRDY.Pin)
	}
	return pin, nil
}
