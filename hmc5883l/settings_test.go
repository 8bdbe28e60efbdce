package hmc5883l

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	for _, m := range averagedSamples {
		v, err := ParseAveragedSamples(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, v)
	}
	for _, m := range dataRates {
		v, err := ParseDataRate(m.String() + "Hz")
		require.NoError(t, err)
		assert.Equal(t, m, v)
	}
	for _, m := range measurementModes {
		v, err := ParseMeasurementMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, v)
	}
	for _, m := range gains {
		v, err := ParseGain(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, v)
	}
	for _, m := range operatingModes {
		v, err := ParseOperatingMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, v)
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := ParseAveragedSamples("3")
	assert.ErrorIs(t, err, ErrInvalidSetting)
	_, err = ParseDataRate("220")
	assert.ErrorIs(t, err, ErrInvalidSetting)
	_, err = ParseMeasurementMode("reserved")
	assert.ErrorIs(t, err, ErrInvalidSetting)
	_, err = ParseGain("220")
	assert.ErrorIs(t, err, ErrInvalidSetting)
	_, err = ParseOperatingMode("sleep")
	assert.ErrorIs(t, err, ErrInvalidSetting)
}

func TestParse_Normalizes(t *testing.T) {
	mode, err := ParseOperatingMode(" Continuous ")
	require.NoError(t, err)
	assert.Equal(t, ModeContinuous, mode)

	rate, err := ParseDataRate("0.75HZ")
	require.NoError(t, err)
	assert.Equal(t, Rate0_75Hz, rate)
}

func TestSettings_Values(t *testing.T) {
	assert.Equal(t, 8, Samples8.Count())
	assert.Equal(t, 75.0, Rate75Hz.Hz())
	assert.Equal(t, 2*time.Second/3, Rate1_5Hz.Period())
	assert.Equal(t, time.Duration(0), DataRate(7).Period())
	assert.Equal(t, 1090.0, Gain1090.LSBPerGauss())
	assert.Equal(t, 8.1, Gain230.Range())
	assert.Equal(t, "DataRate(7)", DataRate(7).String())
	assert.Equal(t, "MeasurementMode(3)", MeasurementMode(3).String())
}
