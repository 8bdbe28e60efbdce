// Package config loads the YAML profile used by the magsense tool.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mklimuk/magsense/hmc5883l"
	"github.com/mklimuk/magsense/stream"
	"gopkg.in/yaml.v3"
)

const (
	AdapterMCP2221 = "mcp2221"
	AdapterGeneric = "generic"
	AdapterNanoPi  = "nanopi"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Bus      Bus           `yaml:"bus"`
	Sensor   Sensor        `yaml:"sensor"`
	DRDY     DRDY          `yaml:"drdy"`
	MQTT     MQTT          `yaml:"mqtt"`
	Interval time.Duration `yaml:"interval"`
}

type Bus struct {
	Adapter  string `yaml:"adapter"`
	Device   string `yaml:"device"`
	Number   int    `yaml:"number"`
	SpeedKHz int    `yaml:"speed_khz"`
	Retries  int    `yaml:"retries"`
}

// Sensor holds register settings in their human readable form, e.g. gain "1090" or rate "15".
type Sensor struct {
	Averaging string `yaml:"averaging"`
	Rate      string `yaml:"rate"`
	Bias      string `yaml:"bias"`
	Gain      string `yaml:"gain"`
	Mode      string `yaml:"mode"`
	HighSpeed bool   `yaml:"high_speed"`
}

type DRDY struct {
	// Pin is a host periph gpio name (e.g. GPIO17). Empty means polling.
	Pin string `yaml:"pin"`
}

type MQTT struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
	Retained bool   `yaml:"retained"`
}

// Default returns the configuration used when no profile is given.
func Default() Config {
	defaults := hmc5883l.DefaultSettings()
	return Config{
		Bus: Bus{
			Adapter:  AdapterMCP2221,
			Device:   "/dev/i2c-1",
			SpeedKHz: 100,
			Retries:  3,
		},
		Sensor: Sensor{
			Averaging: defaults.Averaging.String(),
			Rate:      defaults.Rate.String(),
			Bias:      defaults.Bias.String(),
			Gain:      defaults.Gain.String(),
			Mode:      defaults.Mode.String(),
			HighSpeed: defaults.HighSpeed,
		},
		MQTT: MQTT{
			ClientID: "magsense",
			Topic:    stream.DefaultTopic,
		},
		Interval: time.Second,
	}
}

// Load reads the profile at path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: could not read %s: %w", path, err)
	}
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config: could not parse %s: %w", path, err)
	}
	err = cfg.Validate()
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Bus.Adapter {
	case AdapterMCP2221, AdapterGeneric, AdapterNanoPi:
	default:
		return fmt.Errorf("%w: unknown adapter %q", ErrInvalidConfig, c.Bus.Adapter)
	}
	if c.Bus.Adapter == AdapterGeneric && c.Bus.Device == "" {
		return fmt.Errorf("%w: generic adapter requires a device", ErrInvalidConfig)
	}
	if c.Bus.SpeedKHz < 10 || c.Bus.SpeedKHz > 400 {
		return fmt.Errorf("%w: bus speed %dkHz outside 10-400kHz", ErrInvalidConfig, c.Bus.SpeedKHz)
	}
	if c.Bus.Retries < 0 {
		return fmt.Errorf("%w: negative retry count", ErrInvalidConfig)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if isAdapterPin(c.DRDY.Pin) {
		// the adapter reads GP levels over HID and misses the ~250µs pulse
		return fmt.Errorf("%w: drdy pin %s is an mcp2221 pin, use a host gpio", ErrInvalidConfig, c.DRDY.Pin)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("%w: mqtt qos %d", ErrInvalidConfig, c.MQTT.QoS)
	}
	_, err := c.Settings()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Settings converts the sensor section to driver settings.
func (c Config) Settings() (hmc5883l.Settings, error) {
	var s hmc5883l.Settings
	var err error
	if s.Averaging, err = hmc5883l.ParseAveragedSamples(c.Sensor.Averaging); err != nil {
		return s, err
	}
	if s.Rate, err = hmc5883l.ParseDataRate(c.Sensor.Rate); err != nil {
		return s, err
	}
	if s.Bias, err = hmc5883l.ParseMeasurementMode(c.Sensor.Bias); err != nil {
		return s, err
	}
	if s.Gain, err = hmc5883l.ParseGain(c.Sensor.Gain); err != nil {
		return s, err
	}
	if s.Mode, err = hmc5883l.ParseOperatingMode(c.Sensor.Mode); err != nil {
		return s, err
	}
	s.HighSpeed = c.Sensor.HighSpeed
	return s, nil
}

// MQTTOpts returns the sink options for the mqtt section.
func (c Config) MQTTOpts() stream.MQTTOpts {
	return stream.MQTTOpts{
		Broker:   c.MQTT.Broker,
		ClientID: c.MQTT.ClientID,
		Topic:    c.MQTT.Topic,
		QoS:      c.MQTT.QoS,
		Retained: c.MQTT.Retained,
	}
}

// isAdapterPin reports whether name is one of the MCP2221 GP0..GP3 pins.
func isAdapterPin(name string) bool {
	if len(name) != 3 || name[:2] != "GP" {
		return false
	}
	n, err := strconv.Atoi(name[2:])
	return err == nil && n <= 3
}
