package backend

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/multierr"

	"github.com/wesleyorama2/meterlog/logger"
)

type countingBackend struct {
	calls int
	err   error
}

func (c *countingBackend) Scalar(string, float64, int) error      { c.calls++; return c.err }
func (c *countingBackend) Histogram(string, []float64, int) error { c.calls++; return c.err }
func (c *countingBackend) Image(string, *image.Gray, int) error   { c.calls++; return c.err }
func (c *countingBackend) Flush() error                           { c.calls++; return c.err }
func (c *countingBackend) Close() error                           { c.calls++; return c.err }

func TestNewMulti(t *testing.T) {
	assert.Nil(t, NewMulti())
	assert.Nil(t, NewMulti(nil, nil))

	single := &countingBackend{}
	assert.Same(t, single, NewMulti(nil, single))

	m, ok := NewMulti(&countingBackend{}, &countingBackend{}).(Multi)
	assert.True(t, ok)
	assert.Len(t, m, 2)
}

func TestMulti_ContinuesPastErrors(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	a := &countingBackend{err: errA}
	b := &countingBackend{err: errB}
	c := &countingBackend{}
	m := Multi{a, b, c}

	err := m.Scalar("train/fps", 1, 0)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Len(t, multierr.Errors(err), 2)

	assert.Error(t, m.Histogram("train/q", nil, 0))
	assert.Error(t, m.Image("train/obs", image.NewGray(image.Rect(0, 0, 1, 1)), 0))
	assert.Error(t, m.Flush())
	assert.Error(t, m.Close())

	for _, cb := range []*countingBackend{a, b, c} {
		assert.Equal(t, 5, cb.calls)
	}
}

func TestMulti_NoErrors(t *testing.T) {
	var m logger.Backend = Multi{&countingBackend{}, &countingBackend{}}
	assert.NoError(t, m.Scalar("eval/episode", 1, 1))
	assert.NoError(t, m.Flush())
}
