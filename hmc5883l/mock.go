package hmc5883l

import (
	"context"
)

// MeasurementBehaviorFunc defines the function signature for magnetometer behavior.
// It returns raw X, Y, Z counts or an error.
type MeasurementBehaviorFunc func(ctx context.Context) (Measurement, error)

// MockMagnetometer is a mock implementation of a three-axis magnetometer that uses
// a behavior function to produce results without requiring any hardware.
type MockMagnetometer struct {
	behavior MeasurementBehaviorFunc
}

// NewMockMagnetometer creates a new mock magnetometer with the given behavior function.
// The behavior function is called by GetAngles and GetAngle.
//
// Example usage:
//
//	// Static value
//	sensor := NewMockMagnetometer(func(ctx context.Context) (Measurement, error) {
//		return Measurement{X: 120, Y: -45, Z: 300}, nil
//	})
//
//	// Rotating sensor
//	step := 0
//	sensor := NewMockMagnetometer(func(ctx context.Context) (Measurement, error) {
//		step++
//		rad := float64(step) * math.Pi / 18
//		return Measurement{X: int16(400 * math.Cos(rad)), Y: int16(400 * math.Sin(rad))}, nil
//	})
func NewMockMagnetometer(behavior MeasurementBehaviorFunc) *MockMagnetometer {
	return &MockMagnetometer{behavior: behavior}
}

// GetAngles returns the measurement by calling the behavior function.
func (m *MockMagnetometer) GetAngles(ctx context.Context) (x, y, z int16, err error) {
	meas, err := m.behavior(ctx)
	if err != nil {
		return 0, 0, 0, err
	}
	return meas.X, meas.Y, meas.Z, nil
}

// GetAngle returns one axis of the measurement produced by the behavior function.
func (m *MockMagnetometer) GetAngle(ctx context.Context, axis Axis) (int16, error) {
	meas, err := m.behavior(ctx)
	if err != nil {
		return 0, err
	}
	switch axis {
	case AxisX:
		return meas.X, nil
	case AxisY:
		return meas.Y, nil
	case AxisZ:
		return meas.Z, nil
	default:
		return 0, ErrUnknownAxis
	}
}
