package logger

import "image"

// Backend receives scalars, histograms and image grids for visualization.
// A Logger without a backend skips these calls.
type Backend interface {
	Scalar(key string, value float64, step int) error
	Histogram(key string, values []float64, step int) error
	Image(key string, img *image.Gray, step int) error
	// Flush is called after every Logger.Dump.
	Flush() error
	Close() error
}
