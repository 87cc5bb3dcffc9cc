package trainer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/meterlog/logger"
	"github.com/wesleyorama2/meterlog/meter"
)

type recordingBackend struct {
	histograms int
	images     []*image.Gray
}

func (r *recordingBackend) Scalar(string, float64, int) error { return nil }
func (r *recordingBackend) Histogram(string, []float64, int) error {
	r.histograms++
	return nil
}
func (r *recordingBackend) Image(_ string, img *image.Gray, _ int) error {
	r.images = append(r.images, img)
	return nil
}
func (r *recordingBackend) Flush() error { return nil }
func (r *recordingBackend) Close() error { return nil }

func readLog(t *testing.T, path string) []meter.Record {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, records, err := meter.ReadRecords(f)
	require.NoError(t, err)
	return records
}

func newLogger(t *testing.T, backend logger.Backend) *logger.Logger {
	t.Helper()
	l, err := logger.New(logger.Options{Dir: t.TempDir(), Console: &bytes.Buffer{}, NoColor: true, Backend: backend})
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRun_DumpCadence(t *testing.T) {
	backend := &recordingBackend{}
	l := newLogger(t, backend)

	stats, err := Run(context.Background(), l, RunConfig{
		Steps:        400,
		EvalEvery:    200,
		DumpEvery:    100,
		Seed:         3,
		LogFrequency: 100,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 400, stats.Steps)
	assert.Equal(t, 2, stats.Evaluations)
	assert.Greater(t, stats.Episodes, 0)

	train := readLog(t, filepath.Join(l.Dir(), "train.csv"))
	require.Len(t, train, 4)
	for i, rec := range train {
		assert.Equal(t, float64((i+1)*100*defaultActionRepeat), rec["frame"])
		assert.Equal(t, float64((i+1)*100), rec["step"])
	}
	assert.Equal(t, float64(stats.Episodes), train[3]["episode"])

	eval := readLog(t, filepath.Join(l.Dir(), "eval.csv"))
	require.Len(t, eval, 2)
	assert.Equal(t, 400.0, eval[0]["frame"])
	assert.Greater(t, eval[1]["episode_reward"], eval[0]["episode_reward"], "returns improve with progress")

	assert.Len(t, backend.images, 2)
	assert.Equal(t, 400*defaultActionRepeat/100, backend.histograms, "histograms gated by log frequency on frames")
}

func TestRun_Deterministic(t *testing.T) {
	cfg := RunConfig{Steps: 200, EvalEvery: 100, DumpEvery: 100, Seed: 11}

	a := newLogger(t, nil)
	_, err := Run(context.Background(), a, cfg, nil)
	require.NoError(t, err)
	b := newLogger(t, nil)
	_, err = Run(context.Background(), b, cfg, nil)
	require.NoError(t, err)

	ra := readLog(t, filepath.Join(a.Dir(), "eval.csv"))
	rb := readLog(t, filepath.Join(b.Dir(), "eval.csv"))
	require.Len(t, rb, len(ra))
	for i := range ra {
		assert.Equal(t, ra[i]["episode_reward"], rb[i]["episode_reward"])
	}
}

func TestRun_Cancelled(t *testing.T) {
	l := newLogger(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, l, RunConfig{Steps: 10, EvalEvery: 5, DumpEvery: 5}, nil)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestRun_InvalidConfig(t *testing.T) {
	l := newLogger(t, nil)
	_, err := Run(context.Background(), l, RunConfig{}, nil)
	assert.Error(t, err)
	_, err = Run(context.Background(), l, RunConfig{Steps: 1}, nil)
	assert.Error(t, err)
}
