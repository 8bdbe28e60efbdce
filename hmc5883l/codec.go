package hmc5883l

import (
	"errors"
	"fmt"
)

// ErrReservedPattern is matched by every DecodeError.
var ErrReservedPattern = errors.New("hmc5883l: reserved bit pattern")

// DecodeError reports a register sub-field holding a pattern with no defined
// meaning, e.g. after a brown-out or a write from another bus master.
type DecodeError struct {
	Register Register
	Field    string
	Bits     byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("hmc5883l: %s field of %s register holds reserved pattern %03b", e.Field, e.Register, e.Bits)
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrReservedPattern
}

// field describes one setting inside a configuration register.
type field struct {
	name  string
	reg   Register
	mask  byte
	shift uint
}

var (
	fieldAveraging = field{name: "averaging", reg: RegConfigA, mask: 0b0110_0000, shift: 5}
	fieldDataRate  = field{name: "data rate", reg: RegConfigA, mask: 0b0001_1100, shift: 2}
	fieldBias      = field{name: "measurement mode", reg: RegConfigA, mask: 0b0000_0011, shift: 0}
	fieldGain      = field{name: "gain", reg: RegConfigB, mask: 0b1110_0000, shift: 5}
	fieldHighSpeed = field{name: "high speed", reg: RegMode, mask: 0b1000_0000, shift: 7}
	fieldMode      = field{name: "operating mode", reg: RegMode, mask: 0b0000_0011, shift: 0}
)

// pack clears the bits covered by mask in current and sets bits in their place.
// Bits outside mask are left untouched.
func pack(current, mask, bits byte) byte {
	return current&^mask | bits&mask
}

// encode places value into the field of the current register content.
func (f field) encode(current byte, value byte) byte {
	return pack(current, f.mask, value<<f.shift)
}

func (f field) extract(b byte) byte {
	return (b & f.mask) >> f.shift
}

// decodeOperatingMode maps MR1-MR0 to a mode. Both 1x patterns put the device
// in idle, so the field has no reserved encoding.
func decodeOperatingMode(b byte) OperatingMode {
	bits := fieldMode.extract(b)
	if bits&0b10 != 0 {
		return ModeIdle
	}
	return OperatingMode(bits)
}

// unpack extracts the field from b and maps it to a member of T.
func unpack[T setting](f field, b byte) (T, error) {
	bits := f.extract(b)
	v := T(bits)
	if !v.valid() {
		return 0, &DecodeError{Register: f.reg, Field: f.name, Bits: bits}
	}
	return v, nil
}
