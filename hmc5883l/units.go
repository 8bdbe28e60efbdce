package hmc5883l

import "math"

// OverflowValue is written to a data register when the ADC over/underflows
// or the bias current is out of range. It is cleared by the next valid measurement.
const OverflowValue int16 = -4096

// Measurement holds raw counts of one conversion.
type Measurement struct {
	X int16 `json:"x" yaml:"x"`
	Y int16 `json:"y" yaml:"y"`
	Z int16 `json:"z" yaml:"z"`
}

// Overflowed reports whether any axis holds OverflowValue.
func (m Measurement) Overflowed() bool {
	return m.X == OverflowValue || m.Y == OverflowValue || m.Z == OverflowValue
}

func (m Measurement) Heading() float64 {
	return Heading(m.X, m.Y)
}

// Gauss scales all axes with the resolution of gain.
func (m Measurement) Gauss(gain Gain) (x, y, z float64) {
	return Gauss(m.X, gain), Gauss(m.Y, gain), Gauss(m.Z, gain)
}

// Heading returns the compass bearing in degrees [0, 360) of a level sensor.
// No declination correction is applied.
func Heading(x, y int16) float64 {
	deg := math.Atan2(float64(y), float64(x)) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Gauss converts raw counts to gauss. Unknown gains yield 0.
func Gauss(raw int16, gain Gain) float64 {
	lsb := gain.LSBPerGauss()
	if lsb == 0 {
		return 0
	}
	return float64(raw) / lsb
}
