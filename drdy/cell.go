// Package drdy shares a driver handle with code triggered by the sensor's
// data ready line.
package drdy

import (
	"errors"
	"sync/atomic"
)

var (
	ErrNotPublished     = errors.New("drdy: handle not published")
	ErrAlreadyPublished = errors.New("drdy: handle already published")
	ErrNilValue         = errors.New("drdy: cannot publish nil handle")
)

// Cell is a one-shot publication slot. A value is stored once and can be loaded
// from any goroutine afterwards.
type Cell[T any] struct {
	value atomic.Pointer[T]
}

// Publish stores v. Only the first call succeeds.
func (c *Cell[T]) Publish(v *T) error {
	if v == nil {
		return ErrNilValue
	}
	if !c.value.CompareAndSwap(nil, v) {
		return ErrAlreadyPublished
	}
	return nil
}

// Load returns the published value or ErrNotPublished.
func (c *Cell[T]) Load() (*T, error) {
	v := c.value.Load()
	if v == nil {
		return nil, ErrNotPublished
	}
	return v, nil
}

// Published reports whether a value has been stored.
func (c *Cell[T]) Published() bool {
	return c.value.Load() != nil
}
