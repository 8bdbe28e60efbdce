package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"
	"github.com/mklimuk/magsense"
	"github.com/mklimuk/magsense/snsctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

var ErrCommandUnsupported = errors.New("mcp2221: unsupported command")
var ErrCommandFailed = errors.New("mcp2221: command failed")
var ErrDeviceNotFound = errors.New("mcp2221: device not found")

// I2C engine commands
const (
	cmdStatus             = 0x10
	cmdGetI2CData         = 0x40
	cmdGetGPIOValues      = 0x51
	cmdWriteData          = 0x90
	cmdReadData           = 0x91
	cmdReadDataRepStart   = 0x93
	cmdWriteDataNoStop    = 0x94
	cmdGetSRAMSettings    = 0xB0
	cmdSetSRAMSettings    = 0xB1
	statusCancelTransfer  = 0x10
	statusSetSpeed        = 0x20
	responseEngineBusy    = 0x01
	responseReadError     = 0x41
	responseInvalidLength = 127
	reportSize            = 64
	maxTransferSize       = reportSize - 4
)

var _ magsense.I2CBus = &MCP2221{}

// MCP2221 is a USB-HID to I2C bridge. Every request opens the HID device,
// writes one 64 byte report and reads the 64 byte response.
type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration
	index        int
}

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

type MCP2221Opts struct {
	ResponseWait time.Duration
	DeviceIndex  int
}

type MCP2221Opt func(*MCP2221Opts)

// WithResponseWait sets the delay between a request and reading its response.
func WithResponseWait(wait time.Duration) MCP2221Opt {
	return func(o *MCP2221Opts) {
		o.ResponseWait = wait
	}
}

// WithDeviceIndex selects one of several connected adapters in enumeration order.
func WithDeviceIndex(index int) MCP2221Opt {
	return func(o *MCP2221Opts) {
		o.DeviceIndex = index
	}
}

func NewMCP2221(opts ...MCP2221Opt) *MCP2221 {
	config := MCP2221Opts{
		ResponseWait: 50 * time.Millisecond,
		DeviceIndex:  -1,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &MCP2221{
		request:      make([]byte, reportSize),
		response:     make([]byte, reportSize),
		responseWait: config.ResponseWait,
		index:        config.DeviceIndex,
	}
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.write(ctx, cmdWriteData, address, buffer)
	if err != nil {
		return fmt.Errorf("mcp2221: write to %x failed: %w", address, err)
	}
	return nil
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.read(ctx, cmdReadData, address, buffer)
	if err != nil {
		return fmt.Errorf("mcp2221: read from %x failed: %w", address, err)
	}
	return nil
}

// WriteReadFromAddr writes out without a stop condition and reads in after a repeated start.
func (d *MCP2221) WriteReadFromAddr(ctx context.Context, address byte, out []byte, in []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.write(ctx, cmdWriteDataNoStop, address, out)
	if err != nil {
		return fmt.Errorf("mcp2221: write to %x failed: %w", address, err)
	}
	err = d.read(ctx, cmdReadDataRepStart, address, in)
	if err != nil {
		return fmt.Errorf("mcp2221: repeated start read from %x failed: %w", address, err)
	}
	return nil
}

func (d *MCP2221) write(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	if len(buffer) > maxTransferSize {
		return fmt.Errorf("transfer of %d bytes exceeds %d", len(buffer), maxTransferSize)
	}
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	copy(d.request[4:], buffer)
	err := d.send(ctx)
	if err != nil {
		return err
	}
	if d.response[1] == responseEngineBusy {
		slog.DebugContext(ctx, "adapter busy", "command", fmt.Sprintf("%#x", cmd))
		return magsense.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) read(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	if len(buffer) > maxTransferSize {
		return fmt.Errorf("transfer of %d bytes exceeds %d", len(buffer), maxTransferSize)
	}
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 + 1
	err := d.send(ctx)
	if err != nil {
		return err
	}
	if d.response[1] == responseEngineBusy {
		return magsense.ErrBusBusy
	}
	d.resetBuffers()
	d.request[0] = cmdGetI2CData
	err = d.send(ctx)
	if err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	return copyReadData(d.response, buffer)
}

func copyReadData(response []byte, buffer []byte) error {
	if response[1] == responseReadError {
		return fmt.Errorf("error reading the I2C slave data from the I2C engine")
	}
	if response[3] == responseInvalidLength || int(response[3]) != len(buffer) {
		return fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), response[3])
	}
	copy(buffer, response[4:4+len(buffer)])
	return nil
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp2221: status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

// SetSpeed sets the I2C clock. The adapter supports 47kHz to 400kHz.
func (d *MCP2221) SetSpeed(ctx context.Context, khz int) error {
	if khz < 47 || khz > 400 {
		return fmt.Errorf("mcp2221: unsupported i2c speed %dkHz", khz)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[3] = statusSetSpeed
	d.request[4] = speedDivider(khz)
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("mcp2221: set speed request failed: %w", err)
	}
	if d.response[3] != statusSetSpeed {
		return ErrCommandFailed
	}
	return nil
}

// speedDivider computes the system clock divider for the requested I2C clock.
func speedDivider(khz int) byte {
	return byte(12000/khz - 3)
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		9: Lower byte (16-bit value) of the requested I2C transfer length
		10: Higher byte (16-bit value) of the requested I2C transfer length
		11:	Lower byte (16-bit value) of the already transferred (through I2C) number of bytes
		12:	Higher byte (16-bit value) of the already transferred (through I2C) number of bytes
		13:	Internal I2C data buffer counter
		14: Current I2C communication speed divider value
		15: Current I2C timeout value
		16:	Lower byte (16-bit value) of the I2C address being used
		17:	Higher byte (16-bit value) of the I2C address being used
		25: I2C read pending
	*/
	status := &MCP2221Status{
		I2CDataBufferCounter: int(buffer[13]),
		I2CSpeedDivider:      int(buffer[14]),
		I2CTimeout:           int(buffer[15]),
		ReadPending:          int(buffer[25]),
		CurrentAddress:       hex.EncodeToString(buffer[16:18]),
	}
	status.LastWriteRequestedSize = binary.LittleEndian.Uint16(buffer[9:11])
	status.LastWriteSentSize = binary.LittleEndian.Uint16(buffer[11:13])
	return status
}

func (d *MCP2221) Release(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	_, err := d.releaseBus(ctx)
	return err
}

// ReleaseBus cancels the current I2C transfer and returns the engine status.
func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.releaseBus(ctx)
}

func (d *MCP2221) releaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[2] = statusCancelTransfer
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp2221: cancel transfer request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func (d *MCP2221) open() (*hid.Device, error) {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return nil, ErrDeviceNotFound
	}
	if d.index < 0 {
		if len(devs) > 1 {
			return nil, fmt.Errorf("ambiguous device identification: %d adapters connected", len(devs))
		}
		return devs[0].Open()
	}
	if d.index >= len(devs) {
		return nil, fmt.Errorf("no device with index %d", d.index)
	}
	return devs[d.index].Open()
}

func (d *MCP2221) send(ctx context.Context) error {
	dev, err := d.open()
	if err != nil {
		return fmt.Errorf("error opening device: %w", err)
	}
	defer func() {
		_ = dev.Close()
	}()
	verbose := snsctx.IsVerbose(ctx)
	if verbose {
		slog.DebugContext(ctx, "sending message to adapter", "request", hex.EncodeToString(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short write: %d", n)
	}
	timer := time.NewTimer(d.responseWait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		slog.DebugContext(ctx, "read message from adapter", "response", hex.EncodeToString(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	resetBuffer(d.request)
	resetBuffer(d.response)
}

func resetBuffer(buf []byte) {
	for i := range buf {
		buf[i] = 0x00
	}
}
