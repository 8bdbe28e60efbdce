package adapter

import (
	"context"
	"fmt"
)

type GPIOMode byte

const (
	GPIOModeOut         GPIOMode = 0b00000000
	GPIOModeIn          GPIOMode = 0b00001000
	GPIOModeNoOperation GPIOMode = 0xEF
)

func (m GPIOMode) String() string {
	switch m {
	case GPIOModeIn:
		return "INPUT"
	case GPIOModeOut:
		return "OUTPUT"
	default:
		return "NOOP"
	}
}

func (m GPIOMode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

type GPIODesignation byte

const (
	GPIOOperation GPIODesignation = 0b00000000
	// This is alternate function of GPIO0
	GPIO0LedUartRx GPIODesignation = 0b00000001
	// This is the dedicated function operation of GPIO0
	GPIO0SSPND GPIODesignation = 0b00000010
	// This is the alternate function 2 of GPIO1
	GPIO1InterruptDetection GPIODesignation = 0b00000100
)

const gpioModeMask = 0b00001000
const gpioOperationMask = 0b00000111

type MCP2221GPIOValues struct {
	GPIO0Mode  GPIOMode `yaml:"GP0_mode"`
	GPIO0Value byte     `yaml:"GPIO0"`
	GPIO1Mode  GPIOMode `yaml:"GP1_mode"`
	GPIO1Value byte     `yaml:"GPIO1"`
	GPIO2Mode  GPIOMode `yaml:"GP2_mode"`
	GPIO2Value byte     `yaml:"GPIO2"`
	GPIO3Mode  GPIOMode `yaml:"GP3_mode"`
	GPIO3Value byte     `yaml:"GPIO3"`
}

// Value returns the level of GP<n>.
func (v MCP2221GPIOValues) Value(n int) byte {
	switch n {
	case 0:
		return v.GPIO0Value
	case 1:
		return v.GPIO1Value
	case 2:
		return v.GPIO2Value
	case 3:
		return v.GPIO3Value
	default:
		return 0
	}
}

type MCP2221GPIOParameters struct {
	GPIO0Mode        GPIOMode        `yaml:"GP0_mode"`
	GPIO0Designation GPIODesignation `yaml:"GP0_designation"`
	GPIO1Mode        GPIOMode        `yaml:"GP1_mode"`
	GPIO1Designation GPIODesignation `yaml:"GP1_designation"`
	GPIO2Mode        GPIOMode        `yaml:"GP2_mode"`
	GPIO2Designation GPIODesignation `yaml:"GP2_designation"`
	GPIO3Mode        GPIOMode        `yaml:"GP3_mode"`
	GPIO3Designation GPIODesignation `yaml:"GP3_designation"`
}

func (d *MCP2221) SetGPIOParameters(ctx context.Context, params MCP2221GPIOParameters) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdSetSRAMSettings
	// alter GPIO configuration
	d.request[7] = 0x80
	d.request[8] = byte(params.GPIO0Designation) | byte(params.GPIO0Mode)
	d.request[9] = byte(params.GPIO1Designation) | byte(params.GPIO1Mode)
	d.request[10] = byte(params.GPIO2Designation) | byte(params.GPIO2Mode)
	d.request[11] = byte(params.GPIO3Designation) | byte(params.GPIO3Mode)
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("mcp2221: set GP parameters command write failed: %w", err)
	}
	if d.response[1] != 0x00 {
		return ErrCommandFailed
	}
	return nil
}

func (d *MCP2221) GetGPIOParameters(ctx context.Context) (MCP2221GPIOParameters, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdGetSRAMSettings
	err := d.send(ctx)
	if err != nil {
		return MCP2221GPIOParameters{}, fmt.Errorf("mcp2221: get GP parameters command write failed: %w", err)
	}
	if d.response[1] != 0x00 {
		return MCP2221GPIOParameters{}, ErrCommandUnsupported
	}
	return bufferToGPIOParameters(d.response), nil
}

func bufferToGPIOParameters(buffer []byte) MCP2221GPIOParameters {
	// GP0..GP3 settings start at byte 22 of the SRAM settings response
	return MCP2221GPIOParameters{
		GPIO0Mode:        GPIOMode(buffer[22] & gpioModeMask),
		GPIO0Designation: GPIODesignation(buffer[22] & gpioOperationMask),
		GPIO1Mode:        GPIOMode(buffer[23] & gpioModeMask),
		GPIO1Designation: GPIODesignation(buffer[23] & gpioOperationMask),
		GPIO2Mode:        GPIOMode(buffer[24] & gpioModeMask),
		GPIO2Designation: GPIODesignation(buffer[24] & gpioOperationMask),
		GPIO3Mode:        GPIOMode(buffer[25] & gpioModeMask),
		GPIO3Designation: GPIODesignation(buffer[25] & gpioOperationMask),
	}
}

func (d *MCP2221) ReadGPIO(ctx context.Context) (MCP2221GPIOValues, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdGetGPIOValues
	err := d.send(ctx)
	var res MCP2221GPIOValues
	if err != nil {
		return res, fmt.Errorf("mcp2221: read GPIO values command write failed: %w", err)
	}
	if d.response[1] != 0x00 {
		return res, ErrCommandFailed
	}
	return bufferToGPIOValues(d.response), nil
}

func bufferToGPIOValues(buffer []byte) MCP2221GPIOValues {
	var res MCP2221GPIOValues
	modes := []*GPIOMode{&res.GPIO0Mode, &res.GPIO1Mode, &res.GPIO2Mode, &res.GPIO3Mode}
	values := []*byte{&res.GPIO0Value, &res.GPIO1Value, &res.GPIO2Value, &res.GPIO3Value}
	for i := range modes {
		*values[i] = buffer[2+2*i]
		*modes[i] = GPIOModeNoOperation
		if dir := buffer[3+2*i]; dir != byte(GPIOModeNoOperation) {
			// direction byte: 0 output, 1 input
			*modes[i] = GPIOMode(dir << 3)
		}
	}
	return res
}
