// Package events writes a TensorBoard-style run directory: a JSON lines event
// log plus PNG files for images. Events can be filtered back out with Filter.
package events

import (
	"bufio"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wesleyorama2/meterlog/logger"
)

const (
	// SubDir is the run directory created under the log directory.
	SubDir = "tb"
	// FileName is the event log inside SubDir.
	FileName = "events.jsonl"
	// ImageDir holds PNG files inside SubDir.
	ImageDir = "images"
)

// Event kinds.
const (
	KindRun       = "run"
	KindScalar    = "scalar"
	KindHistogram = "histogram"
	KindImage     = "image"
)

var _ logger.Backend = (*Writer)(nil)

// Event is one line of the event log.
type Event struct {
	Run       string     `json:"run"`
	Kind      string     `json:"kind"`
	Key       string     `json:"key,omitempty"`
	Step      int        `json:"step"`
	WallTime  float64    `json:"wall_time"`
	Value     *Float     `json:"value,omitempty"`
	Histogram *Histogram `json:"histogram,omitempty"`
	Image     *ImageRef  `json:"image,omitempty"`
}

// ImageRef points at a PNG written next to the event log.
type ImageRef struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Options configures a Writer.
type Options struct {
	// Dir is the log directory; events go to Dir/tb.
	Dir string
	// Bins is the number of histogram bins (default DefaultBins).
	Bins int
	// RunID tags every event. A random UUID is used when empty.
	RunID string
	// Logger receives diagnostics. Nil discards them.
	Logger *zap.SugaredLogger
}

// Writer is a logger.Backend appending events to Dir/tb/events.jsonl.
type Writer struct {
	dir    string
	run    string
	bins   int
	file   *os.File
	buf    *bufio.Writer
	enc    *json.Encoder
	logger *zap.SugaredLogger
	now    func() time.Time
}

// New creates the run directory and opens the event log for appending. A
// run event carrying the run id is written first.
func New(opts Options) (*Writer, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("events: log directory is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Bins <= 0 {
		opts.Bins = DefaultBins
	}

	dir := filepath.Join(opts.Dir, SubDir)
	if err := os.MkdirAll(filepath.Join(dir, ImageDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create event directory: %w", err)
	}
	path := filepath.Join(dir, FileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}

	buf := bufio.NewWriter(file)
	w := &Writer{
		dir:    dir,
		run:    opts.RunID,
		bins:   opts.Bins,
		file:   file,
		buf:    buf,
		enc:    json.NewEncoder(buf),
		logger: opts.Logger,
		now:    time.Now,
	}
	opts.Logger.Infow("event log opened", "path", path, "run", w.run)

	if err := w.write(Event{Kind: KindRun}); err != nil {
		return nil, multierr.Append(err, file.Close())
	}
	return w, nil
}

// Run returns the run id.
func (w *Writer) Run() string {
	return w.run
}

// Path returns the event log path.
func (w *Writer) Path() string {
	return filepath.Join(w.dir, FileName)
}

func (w *Writer) write(e Event) error {
	e.Run = w.run
	e.WallTime = float64(w.now().UnixNano()) / 1e9
	if err := w.enc.Encode(e); err != nil {
		return fmt.Errorf("failed to write %s event: %w", e.Kind, err)
	}
	return nil
}

func (w *Writer) Scalar(key string, value float64, step int) error {
	v := Float(value)
	return w.write(Event{Kind: KindScalar, Key: key, Step: step, Value: &v})
}

func (w *Writer) Histogram(key string, values []float64, step int) error {
	h := NewHistogram(values, w.bins)
	if h.Dropped > 0 {
		w.logger.Debugw("dropped non-finite histogram values", "key", key, "step", step, "dropped", h.Dropped)
	}
	return w.write(Event{Kind: KindHistogram, Key: key, Step: step, Histogram: &h})
}

func (w *Writer) Image(key string, img *image.Gray, step int) error {
	rel := filepath.Join(ImageDir, fmt.Sprintf("%s_%d.png", sanitize(key), step))
	if err := writePNG(filepath.Join(w.dir, rel), img); err != nil {
		return err
	}
	b := img.Bounds()
	return w.write(Event{
		Kind:  KindImage,
		Key:   key,
		Step:  step,
		Image: &ImageRef{Path: filepath.ToSlash(rel), Width: b.Dx(), Height: b.Dy()},
	})
}

func writePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// sanitize turns a metric key into a file name.
func sanitize(key string) string {
	return strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_").Replace(key)
}

// Flush writes buffered events to disk.
func (w *Writer) Flush() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush event log: %w", err)
	}
	return nil
}

// Close flushes and closes the event log.
func (w *Writer) Close() error {
	return multierr.Append(w.Flush(), w.file.Close())
}
