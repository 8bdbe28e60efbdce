package main

import (
	"context"

	"github.com/mklimuk/magsense/adapter"
	"github.com/mklimuk/magsense/cmd/magsense/console"
	"github.com/mklimuk/magsense/snsctx"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

var mcp2221Flags = []cli.Flag{
	&cli.IntFlag{
		Name:  "index",
		Value: -1,
		Usage: "adapter index as listed by usb detect",
	},
}

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "mcp2221 bridge housekeeping",
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
		&mcp2221GPIOCmd,
	},
}

func mcp2221Context(c *cli.Context) (context.Context, *adapter.MCP2221) {
	ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
	return ctx, adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("index")))
}

func printYAML(v interface{}) error {
	enc := yaml.NewEncoder(console.Writer())
	defer enc.Close()
	err := enc.Encode(v)
	if err != nil {
		return console.Exit(1, "encoding error: %s", console.Red(err))
	}
	return nil
}

var mcp2221StatusCmd = cli.Command{
	Name:  "status",
	Flags: mcp2221Flags,
	Action: func(c *cli.Context) error {
		ctx, a := mcp2221Context(c)
		status, err := a.Status(ctx)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return printYAML(status)
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel the current i2c transfer",
	Flags: mcp2221Flags,
	Action: func(c *cli.Context) error {
		ctx, a := mcp2221Context(c)
		status, err := a.ReleaseBus(ctx)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return printYAML(status)
	},
}

var mcp2221GPIOCmd = cli.Command{
	Name:  "gpio",
	Usage: "print GP pin configuration and levels",
	Flags: mcp2221Flags,
	Action: func(c *cli.Context) error {
		ctx, a := mcp2221Context(c)
		params, err := a.GetGPIOParameters(ctx)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		values, err := a.ReadGPIO(ctx)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return printYAML(map[string]interface{}{
			"parameters": params,
			"values":     values,
		})
	},
}
