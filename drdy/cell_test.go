package drdy

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handle struct {
	name string
}

func TestCell_PublishOnce(t *testing.T) {
	var c Cell[handle]

	_, err := c.Load()
	assert.ErrorIs(t, err, ErrNotPublished)
	assert.False(t, c.Published())

	first := &handle{name: "first"}
	require.NoError(t, c.Publish(first))
	assert.ErrorIs(t, c.Publish(&handle{name: "second"}), ErrAlreadyPublished)

	got, err := c.Load()
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestCell_RejectsNil(t *testing.T) {
	var c Cell[handle]
	assert.ErrorIs(t, c.Publish(nil), ErrNilValue)
	assert.False(t, c.Published())
}

func TestCell_ConcurrentPublish(t *testing.T) {
	var c Cell[handle]
	var wg sync.WaitGroup
	var mx sync.Mutex
	won := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Publish(&handle{}) == nil {
				mx.Lock()
				won++
				mx.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, won)
}
