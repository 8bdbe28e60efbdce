package hmc5883l

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidSetting = errors.New("hmc5883l: invalid setting")

// setting is implemented by every register sub-field enumeration.
type setting interface {
	~uint8
	valid() bool
	String() string
}

// AveragedSamples is the number of samples averaged per measurement (CRA6-CRA5).
type AveragedSamples byte

const (
	Samples1 AveragedSamples = iota
	Samples2
	Samples4
	Samples8
)

var averagedSamples = []AveragedSamples{Samples1, Samples2, Samples4, Samples8}

func (s AveragedSamples) valid() bool { return s <= Samples8 }

// Count returns the number of averaged samples.
func (s AveragedSamples) Count() int {
	return 1 << s
}

func (s AveragedSamples) String() string {
	if !s.valid() {
		return fmt.Sprintf("AveragedSamples(%d)", byte(s))
	}
	return fmt.Sprintf("%d", s.Count())
}

// DataRate is the output rate in continuous measurement mode (CRA4-CRA2).
// Pattern 0b111 is reserved.
type DataRate byte

const (
	Rate0_75Hz DataRate = iota
	Rate1_5Hz
	Rate3Hz
	Rate7_5Hz
	Rate15Hz
	Rate30Hz
	Rate75Hz
)

var dataRates = []DataRate{Rate0_75Hz, Rate1_5Hz, Rate3Hz, Rate7_5Hz, Rate15Hz, Rate30Hz, Rate75Hz}

var dataRateHz = [...]float64{0.75, 1.5, 3, 7.5, 15, 30, 75}

func (r DataRate) valid() bool { return r <= Rate75Hz }

// Hz returns the nominal output frequency.
func (r DataRate) Hz() float64 {
	if !r.valid() {
		return 0
	}
	return dataRateHz[r]
}

// Period returns the time between two measurements at this rate.
func (r DataRate) Period() time.Duration {
	if !r.valid() {
		return 0
	}
	return time.Duration(float64(time.Second) / dataRateHz[r])
}

func (r DataRate) String() string {
	if !r.valid() {
		return fmt.Sprintf("DataRate(%d)", byte(r))
	}
	return fmt.Sprintf("%g", dataRateHz[r])
}

// MeasurementMode selects the bias applied to the sensor (CRA1-CRA0).
// Pattern 0b11 is reserved.
type MeasurementMode byte

const (
	BiasNormal MeasurementMode = iota
	BiasPositive
	BiasNegative
)

var measurementModes = []MeasurementMode{BiasNormal, BiasPositive, BiasNegative}

func (m MeasurementMode) valid() bool { return m <= BiasNegative }

func (m MeasurementMode) String() string {
	switch m {
	case BiasNormal:
		return "normal"
	case BiasPositive:
		return "positive"
	case BiasNegative:
		return "negative"
	default:
		return fmt.Sprintf("MeasurementMode(%d)", byte(m))
	}
}

// Gain is the device gain named after its LSB/Gauss resolution (CRB7-CRB5).
type Gain byte

const (
	Gain1370 Gain = iota
	Gain1090
	Gain820
	Gain660
	Gain440
	Gain390
	Gain330
	Gain230
)

var gains = []Gain{Gain1370, Gain1090, Gain820, Gain660, Gain440, Gain390, Gain330, Gain230}

var (
	gainLSBPerGauss = [...]float64{1370, 1090, 820, 660, 440, 390, 330, 230}
	gainRange       = [...]float64{0.88, 1.3, 1.9, 2.5, 4.0, 4.7, 5.6, 8.1}
)

func (g Gain) valid() bool { return g <= Gain230 }

// LSBPerGauss returns the digital resolution for the gain.
func (g Gain) LSBPerGauss() float64 {
	if !g.valid() {
		return 0
	}
	return gainLSBPerGauss[g]
}

// Range returns the recommended +/- sensor field range in gauss.
func (g Gain) Range() float64 {
	if !g.valid() {
		return 0
	}
	return gainRange[g]
}

func (g Gain) String() string {
	if !g.valid() {
		return fmt.Sprintf("Gain(%d)", byte(g))
	}
	return fmt.Sprintf("%g", gainLSBPerGauss[g])
}

// OperatingMode is the acquisition mode (MR1-MR0). The device idles for both
// 0b10 and 0b11; SetOperatingMode writes 0b10 and read-backs report either as
// ModeIdle.
type OperatingMode byte

const (
	ModeContinuous OperatingMode = iota
	ModeSingle
	ModeIdle
)

var operatingModes = []OperatingMode{ModeContinuous, ModeSingle, ModeIdle}

func (m OperatingMode) valid() bool { return m <= ModeIdle }

func (m OperatingMode) String() string {
	switch m {
	case ModeContinuous:
		return "continuous"
	case ModeSingle:
		return "single"
	case ModeIdle:
		return "idle"
	default:
		return fmt.Sprintf("OperatingMode(%d)", byte(m))
	}
}

// ParseAveragedSamples accepts the sample count: 1, 2, 4 or 8.
func ParseAveragedSamples(s string) (AveragedSamples, error) {
	return parse("averaged samples", s, averagedSamples)
}

// ParseDataRate accepts the rate in Hz with an optional "hz" suffix, e.g. "15" or "0.75Hz".
func ParseDataRate(s string) (DataRate, error) {
	return parse("data rate", strings.TrimSuffix(strings.ToLower(s), "hz"), dataRates)
}

// ParseMeasurementMode accepts normal, positive or negative.
func ParseMeasurementMode(s string) (MeasurementMode, error) {
	return parse("measurement mode", s, measurementModes)
}

// ParseGain accepts the LSB/Gauss value of the gain, e.g. "1090".
func ParseGain(s string) (Gain, error) {
	return parse("gain", s, gains)
}

// ParseOperatingMode accepts continuous, single or idle.
func ParseOperatingMode(s string) (OperatingMode, error) {
	return parse("operating mode", s, operatingModes)
}

func parse[T setting](kind string, s string, members []T) (T, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for _, m := range members {
		if m.String() == norm {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %s %q", ErrInvalidSetting, kind, s)
}
