// Package backend holds visualization backends for logger.Logger and a
// fan-out that drives several of them at once.
package backend

import (
	"image"

	"go.uber.org/multierr"

	"github.com/wesleyorama2/meterlog/logger"
)

var _ logger.Backend = Multi(nil)

// Multi forwards every call to each backend in order. A failing backend does
// not stop the others; their errors are combined.
type Multi []logger.Backend

// NewMulti returns a Multi over the non-nil backends. It returns nil when
// none are given so callers can pass the result straight to logger.Options.
func NewMulti(backends ...logger.Backend) logger.Backend {
	var m Multi
	for _, b := range backends {
		if b != nil {
			m = append(m, b)
		}
	}
	switch len(m) {
	case 0:
		return nil
	case 1:
		return m[0]
	}
	return m
}

func (m Multi) Scalar(key string, value float64, step int) (err error) {
	for _, b := range m {
		err = multierr.Append(err, b.Scalar(key, value, step))
	}
	return err
}

func (m Multi) Histogram(key string, values []float64, step int) (err error) {
	for _, b := range m {
		err = multierr.Append(err, b.Histogram(key, values, step))
	}
	return err
}

func (m Multi) Image(key string, img *image.Gray, step int) (err error) {
	for _, b := range m {
		err = multierr.Append(err, b.Image(key, img, step))
	}
	return err
}

func (m Multi) Flush() (err error) {
	for _, b := range m {
		err = multierr.Append(err, b.Flush())
	}
	return err
}

func (m Multi) Close() (err error) {
	for _, b := range m {
		err = multierr.Append(err, b.Close())
	}
	return err
}
