package logger

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constBatch(n, h, w int, v float64) ImageBatch {
	pix := make([]float64, n*h*w)
	for i := range pix {
		pix[i] = v
	}
	return ImageBatch{N: n, Height: h, Width: w, Pix: pix}
}

func TestMakeGrid_Dimensions(t *testing.T) {
	tests := []struct {
		name          string
		batch         ImageBatch
		nrow, padding int
		want          image.Rectangle
	}{
		{"ten images wrap to two rows", constBatch(10, 4, 4, 1), 8, 2, image.Rect(0, 0, 50, 14)},
		{"fewer than a row", constBatch(3, 4, 4, 1), 8, 2, image.Rect(0, 0, 20, 8)},
		{"single image unpadded", constBatch(1, 3, 5, 1), 8, 2, image.Rect(0, 0, 5, 3)},
		{"no padding", constBatch(4, 2, 2, 1), 2, 0, image.Rect(0, 0, 4, 4)},
		{"default row", constBatch(9, 1, 1, 1), 0, 1, image.Rect(0, 0, 17, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := MakeGrid(tt.batch, tt.nrow, tt.padding)
			require.NoError(t, err)
			assert.Equal(t, tt.want, img.Bounds())
		})
	}
}

func TestMakeGrid_Placement(t *testing.T) {
	img, err := MakeGrid(constBatch(2, 1, 1, 1), 8, 1)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 5, 3), img.Bounds())

	assert.Equal(t, uint8(0), img.GrayAt(0, 0).Y, "padding")
	assert.Equal(t, uint8(255), img.GrayAt(1, 1).Y, "first image")
	assert.Equal(t, uint8(0), img.GrayAt(2, 1).Y, "gap")
	assert.Equal(t, uint8(255), img.GrayAt(3, 1).Y, "second image")
}

func TestMakeGrid_ClampsIntensity(t *testing.T) {
	batch := ImageBatch{N: 1, Height: 1, Width: 4, Pix: []float64{-1, 0.5, 2, 0}}
	img, err := MakeGrid(batch, 8, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 128, 255, 0}, img.Pix)
}

func TestMakeGrid_InvalidBatch(t *testing.T) {
	_, err := MakeGrid(ImageBatch{N: 2, Height: 2, Width: 2, Pix: make([]float64, 3)}, 8, 2)
	assert.ErrorIs(t, err, ErrBadImage)

	_, err = MakeGrid(ImageBatch{}, 8, 2)
	assert.ErrorIs(t, err, ErrBadImage)
}
