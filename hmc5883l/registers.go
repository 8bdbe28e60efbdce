package hmc5883l

// Address is the fixed 7-bit I2C address of the HMC5883L.
// The datasheet lists 0x3C/0x3D which are the 8-bit write/read forms of it.
const Address = 0x1E

// Register is an offset into the device register space.
type Register byte

const (
	RegConfigA Register = 0x00
	RegConfigB Register = 0x01
	RegMode    Register = 0x02
	RegXHigh   Register = 0x03
	RegXLow    Register = 0x04
	RegZHigh   Register = 0x05
	RegZLow    Register = 0x06
	RegYHigh   Register = 0x07
	RegYLow    Register = 0x08
	RegStatus  Register = 0x09
	RegIDA     Register = 0x0A
	RegIDB     Register = 0x0B
	RegIDC     Register = 0x0C
)

var registerNames = map[Register]string{
	RegConfigA: "CONFIG_A",
	RegConfigB: "CONFIG_B",
	RegMode:    "MODE",
	RegXHigh:   "DATA_X_MSB",
	RegXLow:    "DATA_X_LSB",
	RegZHigh:   "DATA_Z_MSB",
	RegZLow:    "DATA_Z_LSB",
	RegYHigh:   "DATA_Y_MSB",
	RegYLow:    "DATA_Y_LSB",
	RegStatus:  "STATUS",
	RegIDA:     "ID_A",
	RegIDB:     "ID_B",
	RegIDC:     "ID_C",
}

func (r Register) String() string {
	if name, ok := registerNames[r]; ok {
		return name
	}
	return "UNKNOWN"
}

// status register bits
const (
	statusReady  = 0x01
	statusLocked = 0x02
)

// dataLength is the size of the X, Z, Y output block starting at RegXHigh.
const dataLength = 6

// Axis selects one of the three measurement axes.
type Axis byte

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return "UNKNOWN"
	}
}

// Registers returns the high and low data registers of the axis.
// The device stores axes as X, Z, Y so Y and Z are not in enum order.
func (a Axis) Registers() (hi, lo Register, ok bool) {
	switch a {
	case AxisX:
		return RegXHigh, RegXLow, true
	case AxisY:
		return RegYHigh, RegYLow, true
	case AxisZ:
		return RegZHigh, RegZLow, true
	default:
		return 0, 0, false
	}
}

// offset is the position of the axis high byte inside the data block.
func (a Axis) offset() int {
	hi, _, _ := a.Registers()
	return int(hi - RegXHigh)
}
