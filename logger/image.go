package logger

import (
	"errors"
	"fmt"
	"image"
	"math"
)

const (
	// DefaultGridRow is the number of images per grid row.
	DefaultGridRow = 8
	// DefaultGridPadding is the border between grid cells in pixels.
	DefaultGridPadding = 2
)

// ErrBadImage is returned for image batches whose shape does not match their pixels.
var ErrBadImage = errors.New("invalid image batch")

// ImageBatch is N single-channel images of Height x Width pixels stored
// row-major, one image after another. Intensities are expected in [0, 1].
type ImageBatch struct {
	N      int
	Height int
	Width  int
	Pix    []float64
}

// At returns the intensity of pixel (x, y) of image i.
func (b ImageBatch) At(i, x, y int) float64 {
	return b.Pix[i*b.Height*b.Width+y*b.Width+x]
}

func (b ImageBatch) validate() error {
	if b.N <= 0 || b.Height <= 0 || b.Width <= 0 {
		return fmt.Errorf("%w: shape %dx%dx%d", ErrBadImage, b.N, b.Height, b.Width)
	}
	if len(b.Pix) != b.N*b.Height*b.Width {
		return fmt.Errorf("%w: %d pixels for shape %dx%dx%d", ErrBadImage, len(b.Pix), b.N, b.Height, b.Width)
	}
	return nil
}

// MakeGrid tiles the batch into rows of at most nrow images separated by
// padding pixels of intensity 0. A batch of one image is returned without
// padding.
func MakeGrid(batch ImageBatch, nrow, padding int) (*image.Gray, error) {
	if err := batch.validate(); err != nil {
		return nil, err
	}
	if nrow <= 0 {
		nrow = DefaultGridRow
	}
	if padding < 0 {
		padding = 0
	}

	if batch.N == 1 {
		img := image.NewGray(image.Rect(0, 0, batch.Width, batch.Height))
		for y := 0; y < batch.Height; y++ {
			for x := 0; x < batch.Width; x++ {
				img.Pix[y*img.Stride+x] = toGray(batch.At(0, x, y))
			}
		}
		return img, nil
	}

	cols := nrow
	if batch.N < cols {
		cols = batch.N
	}
	rows := (batch.N + cols - 1) / cols
	cellH := batch.Height + padding
	cellW := batch.Width + padding

	img := image.NewGray(image.Rect(0, 0, cols*cellW+padding, rows*cellH+padding))
	for i := 0; i < batch.N; i++ {
		top := (i/cols)*cellH + padding
		left := (i%cols)*cellW + padding
		for y := 0; y < batch.Height; y++ {
			row := (top + y) * img.Stride
			for x := 0; x < batch.Width; x++ {
				img.Pix[row+left+x] = toGray(batch.At(i, x, y))
			}
		}
	}
	return img, nil
}

func toGray(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}
