// Package hmc5883l drives the Honeywell HMC5883L three-axis digital compass.
// See: https://cdn-shop.adafruit.com/datasheets/HMC5883L_3-Axis_Digital_Compass_IC.pdf
//
// Usage: instantiate with New, configure with the Set* methods (or Configure),
// switch to continuous mode and call GetAngles(ctx) for raw X, Y, Z counts.
//
// The driver keeps no copy of the device configuration; every query reads the
// device. Setters other than SetGain are read-modify-write sequences of two bus
// transactions and must not race with another writer of the same register.
package hmc5883l

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mklimuk/magsense"
)

var ErrUnknownAxis = errors.New("hmc5883l: unknown axis")

// HMC5883L represents a Honeywell HMC5883L magnetometer.
type HMC5883L struct {
	transport magsense.I2CBus
}

func New(trans magsense.I2CBus) *HMC5883L {
	return &HMC5883L{transport: trans}
}

// SetAveragedSamples sets the number of samples averaged per measurement output.
func (s *HMC5883L) SetAveragedSamples(ctx context.Context, n AveragedSamples) error {
	if !n.valid() {
		return fmt.Errorf("%w: averaged samples %s", ErrInvalidSetting, n)
	}
	err := s.update(ctx, fieldAveraging, byte(n))
	if err != nil {
		return fmt.Errorf("hmc5883l: could not set averaged samples: %w", err)
	}
	return nil
}

// SetOutputDataRate sets the continuous mode output rate.
func (s *HMC5883L) SetOutputDataRate(ctx context.Context, rate DataRate) error {
	if !rate.valid() {
		return fmt.Errorf("%w: data rate %s", ErrInvalidSetting, rate)
	}
	err := s.update(ctx, fieldDataRate, byte(rate))
	if err != nil {
		return fmt.Errorf("hmc5883l: could not set output data rate: %w", err)
	}
	return nil
}

// SetMeasurementMode sets the measurement bias.
func (s *HMC5883L) SetMeasurementMode(ctx context.Context, mode MeasurementMode) error {
	if !mode.valid() {
		return fmt.Errorf("%w: measurement mode %s", ErrInvalidSetting, mode)
	}
	err := s.update(ctx, fieldBias, byte(mode))
	if err != nil {
		return fmt.Errorf("hmc5883l: could not set measurement mode: %w", err)
	}
	return nil
}

// SetGain writes configuration register B directly. Gain is the only writable
// field of the register (CRB4-CRB0 must be cleared) so no read is needed.
func (s *HMC5883L) SetGain(ctx context.Context, gain Gain) error {
	if !gain.valid() {
		return fmt.Errorf("%w: gain %s", ErrInvalidSetting, gain)
	}
	err := s.writeRegister(ctx, RegConfigB, fieldGain.encode(0x00, byte(gain)))
	if err != nil {
		return fmt.Errorf("hmc5883l: could not set gain: %w", err)
	}
	return nil
}

// SetOperatingMode switches between continuous, single and idle acquisition.
func (s *HMC5883L) SetOperatingMode(ctx context.Context, mode OperatingMode) error {
	if !mode.valid() {
		return fmt.Errorf("%w: operating mode %s", ErrInvalidSetting, mode)
	}
	err := s.update(ctx, fieldMode, byte(mode))
	if err != nil {
		return fmt.Errorf("hmc5883l: could not set operating mode: %w", err)
	}
	return nil
}

// SetHighSpeed sets the MR7 bit which enables 3400kHz high speed I2C.
// The datasheet only guarantees standard and fast modes.
func (s *HMC5883L) SetHighSpeed(ctx context.Context, enabled bool) error {
	var bit byte
	if enabled {
		bit = 1
	}
	err := s.update(ctx, fieldHighSpeed, bit)
	if err != nil {
		return fmt.Errorf("hmc5883l: could not set high speed mode: %w", err)
	}
	return nil
}

// GetOperatingMode reads back the acquisition mode. The device may fall back to
// idle on its own, e.g. after a single measurement.
func (s *HMC5883L) GetOperatingMode(ctx context.Context) (OperatingMode, error) {
	reg, err := s.readRegister(ctx, RegMode)
	if err != nil {
		return 0, fmt.Errorf("hmc5883l: could not get operating mode: %w", err)
	}
	return decodeOperatingMode(reg), nil
}

// GetAveragedSamples reads back the averaging setting.
func (s *HMC5883L) GetAveragedSamples(ctx context.Context) (AveragedSamples, error) {
	reg, err := s.readRegister(ctx, RegConfigA)
	if err != nil {
		return 0, fmt.Errorf("hmc5883l: could not get averaged samples: %w", err)
	}
	return unpack[AveragedSamples](fieldAveraging, reg)
}

// GetOutputDataRate reads back the output rate. A reserved pattern yields a *DecodeError.
func (s *HMC5883L) GetOutputDataRate(ctx context.Context) (DataRate, error) {
	reg, err := s.readRegister(ctx, RegConfigA)
	if err != nil {
		return 0, fmt.Errorf("hmc5883l: could not get output data rate: %w", err)
	}
	return unpack[DataRate](fieldDataRate, reg)
}

// GetMeasurementMode reads back the bias setting. A reserved pattern yields a *DecodeError.
func (s *HMC5883L) GetMeasurementMode(ctx context.Context) (MeasurementMode, error) {
	reg, err := s.readRegister(ctx, RegConfigA)
	if err != nil {
		return 0, fmt.Errorf("hmc5883l: could not get measurement mode: %w", err)
	}
	return unpack[MeasurementMode](fieldBias, reg)
}

func (s *HMC5883L) GetGain(ctx context.Context) (Gain, error) {
	reg, err := s.readRegister(ctx, RegConfigB)
	if err != nil {
		return 0, fmt.Errorf("hmc5883l: could not get gain: %w", err)
	}
	return unpack[Gain](fieldGain, reg)
}

// GetAngle reads a single axis. High and low bytes are fetched in one
// transaction so a conversion finishing in between cannot tear the value, but
// the three axes read this way may still come from different conversions.
// Prefer GetAngles.
func (s *HMC5883L) GetAngle(ctx context.Context, axis Axis) (int16, error) {
	hi, _, ok := axis.Registers()
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownAxis, axis)
	}
	buf := make([]byte, 2)
	err := s.transport.WriteReadFromAddr(ctx, Address, []byte{byte(hi)}, buf)
	if err != nil {
		return 0, fmt.Errorf("hmc5883l: could not read %s axis: %w", axis, err)
	}
	return int16(binary.BigEndian.Uint16(buf)), nil
}

// GetAngles burst reads all six data registers and returns raw counts in X, Y, Z order.
func (s *HMC5883L) GetAngles(ctx context.Context) (x, y, z int16, err error) {
	buf := make([]byte, dataLength)
	err = s.transport.WriteReadFromAddr(ctx, Address, []byte{byte(RegXHigh)}, buf)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("hmc5883l: could not read data registers: %w", err)
	}
	x, y, z = decodeAngles(buf)
	return x, y, z, nil
}

// decodeAngles converts the X, Z, Y register block.
func decodeAngles(buf []byte) (x, y, z int16) {
	x = int16(binary.BigEndian.Uint16(buf[AxisX.offset():]))
	y = int16(binary.BigEndian.Uint16(buf[AxisY.offset():]))
	z = int16(binary.BigEndian.Uint16(buf[AxisZ.offset():]))
	return x, y, z
}

// IsReady reports the RDY status bit: data has been written to all six data
// registers and not read yet.
func (s *HMC5883L) IsReady(ctx context.Context) (bool, error) {
	reg, err := s.readRegister(ctx, RegStatus)
	if err != nil {
		return false, fmt.Errorf("hmc5883l: could not get ready status: %w", err)
	}
	return reg&statusReady != 0, nil
}

// IsLocked reports the LOCK status bit: some but not all data registers have
// been read, new data will not be placed in them until the lock clears.
func (s *HMC5883L) IsLocked(ctx context.Context) (bool, error) {
	reg, err := s.readRegister(ctx, RegStatus)
	if err != nil {
		return false, fmt.Errorf("hmc5883l: could not get lock status: %w", err)
	}
	return reg&statusLocked != 0, nil
}

func (s *HMC5883L) IsHighSpeed(ctx context.Context) (bool, error) {
	reg, err := s.readRegister(ctx, RegMode)
	if err != nil {
		return false, fmt.Errorf("hmc5883l: could not get high speed mode: %w", err)
	}
	return fieldHighSpeed.extract(reg) == 1, nil
}

// ID holds the identification registers A, B and C.
type ID [3]byte

// expectedID is the fixed content of the identification registers.
var expectedID = ID{'H', '4', '3'}

func (id ID) Valid() bool {
	return id == expectedID
}

func (id ID) String() string {
	return string(id[:])
}

// Identify reads the three identification registers.
func (s *HMC5883L) Identify(ctx context.Context) (ID, error) {
	var id ID
	for i, reg := range []Register{RegIDA, RegIDB, RegIDC} {
		b, err := s.readRegister(ctx, reg)
		if err != nil {
			return ID{}, fmt.Errorf("hmc5883l: could not identify device: %w", err)
		}
		id[i] = b
	}
	return id, nil
}

// update performs the read-modify-write of one field.
func (s *HMC5883L) update(ctx context.Context, f field, value byte) error {
	current, err := s.readRegister(ctx, f.reg)
	if err != nil {
		return err
	}
	return s.writeRegister(ctx, f.reg, f.encode(current, value))
}

func (s *HMC5883L) readRegister(ctx context.Context, reg Register) (byte, error) {
	buf := []byte{0x00}
	err := s.transport.WriteReadFromAddr(ctx, Address, []byte{byte(reg)}, buf)
	if err != nil {
		return 0, fmt.Errorf("could not read %s register: %w", reg, err)
	}
	return buf[0], nil
}

func (s *HMC5883L) writeRegister(ctx context.Context, reg Register, value byte) error {
	slog.DebugContext(ctx, "hmc5883l register write", "register", reg.String(), "value", fmt.Sprintf("%#02x", value))
	err := s.transport.WriteToAddr(ctx, Address, []byte{byte(reg), value})
	if err != nil {
		return fmt.Errorf("could not write %s register: %w", reg, err)
	}
	return nil
}
