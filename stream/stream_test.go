package stream

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/mklimuk/magsense/hmc5883l"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	samples []Sample
	err     error
}

func (s *recordingSink) Write(ctx context.Context, sample Sample) error {
	if s.err != nil {
		return s.err
	}
	s.samples = append(s.samples, sample)
	return nil
}

func TestNewSample(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))
	gain := hmc5883l.Gain1090

	s := NewSample(hmc5883l.Measurement{X: 0, Y: 1090, Z: -545}, &gain, at)

	assert.InDelta(t, 90.0, s.Heading, 1e-9)
	require.NotNil(t, s.Gauss)
	assert.InDelta(t, 1.0, s.Gauss.Y, 1e-9)
	assert.InDelta(t, -0.5, s.Gauss.Z, 1e-9)
	assert.False(t, s.Overflow)
	assert.Equal(t, time.UTC, s.Time.Location())

	s = NewSample(hmc5883l.Measurement{X: hmc5883l.OverflowValue}, nil, at)
	assert.Nil(t, s.Gauss)
	assert.True(t, s.Overflow)
}

func TestPoll_Count(t *testing.T) {
	step := int16(0)
	src := hmc5883l.NewMockMagnetometer(func(ctx context.Context) (hmc5883l.Measurement, error) {
		step++
		return hmc5883l.Measurement{X: step, Y: 2 * step, Z: 3 * step}, nil
	})
	sink := &recordingSink{}

	err := Poll(context.Background(), src, sink, WithInterval(time.Millisecond), WithCount(3))

	require.NoError(t, err)
	require.Len(t, sink.samples, 3)
	assert.Equal(t, hmc5883l.Measurement{X: 3, Y: 6, Z: 9}, sink.samples[2].Measurement)
}

func TestPoll_SkipsReadErrors(t *testing.T) {
	calls := 0
	src := hmc5883l.NewMockMagnetometer(func(ctx context.Context) (hmc5883l.Measurement, error) {
		calls++
		if calls == 1 {
			return hmc5883l.Measurement{}, errors.New("nack")
		}
		return hmc5883l.Measurement{X: 1}, nil
	})
	sink := &recordingSink{}

	err := Poll(context.Background(), src, sink, WithInterval(time.Millisecond), WithCount(1))

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, sink.samples, 1)
}

func TestPoll_SinkError(t *testing.T) {
	src := hmc5883l.NewMockMagnetometer(func(ctx context.Context) (hmc5883l.Measurement, error) {
		return hmc5883l.Measurement{}, nil
	})
	sinkErr := errors.New("broker gone")

	err := Poll(context.Background(), src, &recordingSink{err: sinkErr}, WithInterval(time.Millisecond))

	assert.ErrorIs(t, err, sinkErr)
}

func TestPoll_ContextCancel(t *testing.T) {
	src := hmc5883l.NewMockMagnetometer(func(ctx context.Context) (hmc5883l.Measurement, error) {
		return hmc5883l.Measurement{}, nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Poll(ctx, src, &recordingSink{}, WithInterval(5*time.Millisecond))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPoll_InvalidInterval(t *testing.T) {
	err := Poll(context.Background(), nil, &recordingSink{}, WithInterval(0))
	assert.Error(t, err)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, sink.Write(context.Background(), NewSample(hmc5883l.Measurement{X: 10, Y: 0, Z: 5}, nil, time.Now())))
	assert.Contains(t, buf.String(), "magnetometer sample")
	assert.Contains(t, buf.String(), "x=10")
	assert.Contains(t, buf.String(), "heading=0.0")

	buf.Reset()
	require.NoError(t, sink.Write(context.Background(), NewSample(hmc5883l.Measurement{Z: hmc5883l.OverflowValue}, nil, time.Now())))
	assert.Contains(t, buf.String(), "level=WARN")
}
