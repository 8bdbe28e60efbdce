// Package stream turns magnetometer readings into timestamped samples and
// delivers them to sinks.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mklimuk/magsense/hmc5883l"
)

// Source is anything that can do a full three axis read, e.g. *hmc5883l.HMC5883L
// or *hmc5883l.MockMagnetometer.
type Source interface {
	GetAngles(ctx context.Context) (x, y, z int16, err error)
}

type Sink interface {
	Write(ctx context.Context, sample Sample) error
}

// Field holds the field strength in gauss.
type Field struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Sample struct {
	hmc5883l.Measurement
	Heading  float64   `json:"heading"`
	Gauss    *Field    `json:"gauss,omitempty"`
	Overflow bool      `json:"overflow,omitempty"`
	Time     time.Time `json:"time"`
}

// NewSample derives heading and, for a valid gain, the field in gauss from m.
func NewSample(m hmc5883l.Measurement, gain *hmc5883l.Gain, at time.Time) Sample {
	s := Sample{
		Measurement: m,
		Heading:     m.Heading(),
		Overflow:    m.Overflowed(),
		Time:        at.UTC(),
	}
	if gain != nil {
		var f Field
		f.X, f.Y, f.Z = m.Gauss(*gain)
		s.Gauss = &f
	}
	return s
}

// Read takes one measurement from src.
func Read(ctx context.Context, src Source, gain *hmc5883l.Gain) (Sample, error) {
	var m hmc5883l.Measurement
	var err error
	m.X, m.Y, m.Z, err = src.GetAngles(ctx)
	if err != nil {
		return Sample{}, err
	}
	return NewSample(m, gain, time.Now()), nil
}

type PollOpts struct {
	Interval time.Duration
	// Count limits the number of delivered samples, 0 means unlimited.
	Count int
	Gain  *hmc5883l.Gain
}

type PollOpt func(*PollOpts)

func WithInterval(interval time.Duration) PollOpt {
	return func(o *PollOpts) {
		o.Interval = interval
	}
}

func WithCount(count int) PollOpt {
	return func(o *PollOpts) {
		o.Count = count
	}
}

// WithGain adds field strength in gauss to every sample.
func WithGain(gain hmc5883l.Gain) PollOpt {
	return func(o *PollOpts) {
		o.Gain = &gain
	}
}

// Poll reads src every interval and writes samples to sink until ctx is done or
// Count samples were delivered. Read errors are logged and the sample is skipped;
// sink errors stop polling.
func Poll(ctx context.Context, src Source, sink Sink, opts ...PollOpt) error {
	config := PollOpts{Interval: time.Second}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Interval <= 0 {
		return fmt.Errorf("stream: invalid poll interval %s", config.Interval)
	}
	ticker := time.NewTicker(config.Interval)
	defer ticker.Stop()
	delivered := 0
	for {
		sample, err := Read(ctx, src, config.Gain)
		if err != nil {
			slog.WarnContext(ctx, "magnetometer read failed", "error", err)
		} else {
			err = sink.Write(ctx, sample)
			if err != nil {
				return fmt.Errorf("stream: could not deliver sample: %w", err)
			}
			delivered++
			if config.Count > 0 && delivered >= config.Count {
				return nil
			}
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// LogSink writes samples to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(ctx context.Context, sample Sample) error {
	attrs := []any{
		"x", sample.X,
		"y", sample.Y,
		"z", sample.Z,
		"heading", fmt.Sprintf("%.1f", sample.Heading),
	}
	if sample.Gauss != nil {
		attrs = append(attrs, "gauss", fmt.Sprintf("%.3f/%.3f/%.3f", sample.Gauss.X, sample.Gauss.Y, sample.Gauss.Z))
	}
	if sample.Overflow {
		s.logger.WarnContext(ctx, "magnetometer overflow", attrs...)
		return nil
	}
	s.logger.InfoContext(ctx, "magnetometer sample", attrs...)
	return nil
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, sample Sample) error

func (f SinkFunc) Write(ctx context.Context, sample Sample) error {
	return f(ctx, sample)
}
