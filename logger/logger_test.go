package logger

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/meterlog/meter"
)

type scalarCall struct {
	key   string
	value float64
	step  int
}

type fakeBackend struct {
	scalars    []scalarCall
	histograms []string
	images     []*image.Gray
	flushes    int
	closed     bool
	scalarErr  error
}

func (f *fakeBackend) Scalar(key string, value float64, step int) error {
	if f.scalarErr != nil {
		return f.scalarErr
	}
	f.scalars = append(f.scalars, scalarCall{key, value, step})
	return nil
}

func (f *fakeBackend) Histogram(key string, values []float64, step int) error {
	f.histograms = append(f.histograms, key)
	return nil
}

func (f *fakeBackend) Image(key string, img *image.Gray, step int) error {
	f.images = append(f.images, img)
	return nil
}

func (f *fakeBackend) Flush() error {
	f.flushes++
	return nil
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

type tensor float32

func (t tensor) Item() float64 { return float64(t) }

func newTestLogger(t *testing.T, backend Backend) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	opts := Options{Dir: t.TempDir(), Console: &buf, NoColor: true, LogFrequency: 10}
	if backend != nil {
		opts.Backend = backend
	}
	l, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l, &buf
}

func csvLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestNew_RequiresDir(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestNew_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "run")
	l, err := New(Options{Dir: dir, Console: &bytes.Buffer{}})
	require.NoError(t, err)
	defer l.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, dir, l.Dir())
}

func TestLog_InvalidScope(t *testing.T) {
	backend := &fakeBackend{}
	l, _ := newTestLogger(t, backend)

	err := l.Log("bogus/key", 1, 0)
	require.True(t, errors.Is(err, ErrInvalidScope), "got %v", err)
	assert.Empty(t, backend.scalars, "rejected key must not reach the backend")
	assert.Equal(t, 0, l.Group(Train).Len())
	assert.Equal(t, 0, l.Group(Eval).Len())
}

func TestLog_RoutesByPrefix(t *testing.T) {
	backend := &fakeBackend{}
	l, _ := newTestLogger(t, backend)

	require.NoError(t, l.Log("train/episode_reward", 1.5, 100))
	require.NoError(t, l.Log("eval/episode_reward", tensor(2.5), 100))
	require.NoError(t, l.Log("train/total_time", 90*time.Second, 100))

	assert.Equal(t, 2, l.Group(Train).Len())
	assert.Equal(t, 1, l.Group(Eval).Len())
	assert.Equal(t, []scalarCall{
		{"train/episode_reward", 1.5, 100},
		{"eval/episode_reward", 2.5, 100},
		{"train/total_time", 90, 100},
	}, backend.scalars)
}

func TestLog_UnsupportedValue(t *testing.T) {
	l, _ := newTestLogger(t, nil)
	err := l.Log("train/name", "not a number", 0)
	assert.True(t, errors.Is(err, ErrUnsupportedValue), "got %v", err)
}

func TestLog_BackendError(t *testing.T) {
	backend := &fakeBackend{scalarErr: errors.New("disk full")}
	l, _ := newTestLogger(t, backend)

	err := l.Log("train/fps", 60, 1)
	require.Error(t, err)
	assert.Equal(t, 0, l.Group(Train).Len())
}

func TestLogMetrics(t *testing.T) {
	backend := &fakeBackend{}
	l, _ := newTestLogger(t, backend)

	require.NoError(t, l.LogMetrics(map[string]float64{"fps": 30, "episode": 2, "buffer_size": 100}, 7, Train))

	require.Len(t, backend.scalars, 3)
	assert.Equal(t, "train/buffer_size", backend.scalars[0].key)
	assert.Equal(t, "train/episode", backend.scalars[1].key)
	assert.Equal(t, "train/fps", backend.scalars[2].key)
	assert.Equal(t, 3, l.Group(Train).Len())
}

func TestDump_AllDumpsEvalThenTrain(t *testing.T) {
	backend := &fakeBackend{}
	l, buf := newTestLogger(t, backend)

	require.NoError(t, l.Log("train/episode", 1, 10))
	require.NoError(t, l.Log("eval/episode", 1, 10))
	require.NoError(t, l.Dump(10, All))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "| eval"), "eval first: %q", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "| train"), "train second: %q", lines[1])

	assert.Equal(t, 0, l.Group(Train).Len())
	assert.Equal(t, 0, l.Group(Eval).Len())
	assert.Equal(t, 1, backend.flushes)

	assert.Equal(t, []string{"episode,frame", "1,10"}, csvLines(t, filepath.Join(l.Dir(), "train.csv")))
	assert.Equal(t, []string{"episode,frame", "1,10"}, csvLines(t, filepath.Join(l.Dir(), "eval.csv")))
}

func TestDump_SingleScope(t *testing.T) {
	l, buf := newTestLogger(t, nil)

	require.NoError(t, l.Log("train/episode", 1, 10))
	require.NoError(t, l.Log("eval/episode", 1, 10))
	require.NoError(t, l.Dump(10, Train))

	assert.Equal(t, 0, l.Group(Train).Len())
	assert.Equal(t, 1, l.Group(Eval).Len(), "eval untouched by a train dump")
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestDump_AllContinuesPastEvalError(t *testing.T) {
	backend := &fakeBackend{}
	l, buf := newTestLogger(t, backend)
	require.NoError(t, os.WriteFile(filepath.Join(l.Dir(), "eval.csv"), []byte("episode\nx\n"), 0o644))

	require.NoError(t, l.Log("train/episode", 1, 10))
	require.NoError(t, l.Log("eval/episode", 1, 10))
	err := l.Dump(10, All)
	require.ErrorIs(t, err, meter.ErrMalformedRow)

	assert.Equal(t, 1, l.Group(Eval).Len(), "failed eval dump keeps its meters")
	assert.Equal(t, 0, l.Group(Train).Len(), "train still dumped")
	assert.True(t, strings.HasPrefix(buf.String(), "| train"), buf.String())
	assert.Equal(t, 1, backend.flushes)
}

func TestDump_InvalidScope(t *testing.T) {
	l, _ := newTestLogger(t, nil)
	err := l.Dump(0, Scope("test"))
	assert.True(t, errors.Is(err, ErrInvalidScope), "got %v", err)
}

func TestLogHistogram_Gate(t *testing.T) {
	backend := &fakeBackend{}
	l, _ := newTestLogger(t, backend)

	require.NoError(t, l.LogHistogram("train/q", []float64{1, 2}, 5, 0), "off the default cadence of 10")
	require.NoError(t, l.LogHistogram("train/q", []float64{1, 2}, 20, 0))
	require.NoError(t, l.LogHistogram("train/q", []float64{1, 2}, 3, 3))

	assert.Equal(t, []string{"train/q", "train/q"}, backend.histograms)
}

func TestLogHistogram_GateBeforeValidation(t *testing.T) {
	backend := &fakeBackend{}
	l, _ := newTestLogger(t, backend)

	assert.NoError(t, l.LogHistogram("bogus/q", nil, 7, 0), "skipped steps are not validated")
	err := l.LogHistogram("bogus/q", nil, 10, 0)
	assert.True(t, errors.Is(err, ErrInvalidScope), "got %v", err)
	assert.Empty(t, backend.histograms)
}

func TestLogImage(t *testing.T) {
	backend := &fakeBackend{}
	l, _ := newTestLogger(t, backend)

	batch := ImageBatch{N: 2, Height: 2, Width: 2, Pix: []float64{1, 1, 1, 1, 0, 0, 0, 0}}
	require.NoError(t, l.LogImage("train/obs", batch, 0))

	require.Len(t, backend.images, 1)
	assert.Equal(t, image.Rect(0, 0, 10, 6), backend.images[0].Bounds())

	err := l.LogImage("obs", batch, 0)
	assert.True(t, errors.Is(err, ErrInvalidScope), "got %v", err)
}

func TestLogImage_NoBackend(t *testing.T) {
	l, _ := newTestLogger(t, nil)
	assert.NoError(t, l.LogImage("eval/obs", ImageBatch{}, 0), "without a backend the batch is not inspected")
}

func TestClose_ClosesBackend(t *testing.T) {
	backend := &fakeBackend{}
	l, err := New(Options{Dir: t.TempDir(), Console: &bytes.Buffer{}, Backend: backend})
	require.NoError(t, err)

	require.NoError(t, l.Close())
	assert.True(t, backend.closed)
}
