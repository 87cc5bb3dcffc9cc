// Package plot renders logged scalars as line charts and histograms as bar
// charts, written as image files under <log_dir>/plots.
package plot

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/wesleyorama2/meterlog/backend/events"
	"github.com/wesleyorama2/meterlog/logger"
)

const (
	// SubDir is the plot directory created under the log directory.
	SubDir = "plots"

	defaultSize = 6 * vg.Inch
)

var _ logger.Backend = (*Plotter)(nil)

// Options configures a Plotter.
type Options struct {
	// Dir is the log directory; charts go to Dir/plots.
	Dir string
	// Format is the image extension passed to the plot encoder (default "png").
	Format string
	// Bins is the number of histogram bins (default events.DefaultBins).
	Bins int
	// Width and Height of each chart. Zero selects six inches.
	Width, Height vg.Length
	// Logger receives diagnostics. Nil discards them.
	Logger *zap.SugaredLogger
}

// Plotter is a logger.Backend that keeps every scalar series in memory and
// redraws the charts of series that changed on each Flush.
type Plotter struct {
	dir           string
	format        string
	bins          int
	width, height vg.Length
	logger        *zap.SugaredLogger

	series map[string]plotter.XYs
	dirty  map[string]bool
}

// New creates the plot directory.
func New(opts Options) (*Plotter, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("plot: log directory is required")
	}
	if opts.Format == "" {
		opts.Format = "png"
	}
	if opts.Bins <= 0 {
		opts.Bins = events.DefaultBins
	}
	if opts.Width <= 0 {
		opts.Width = defaultSize
	}
	if opts.Height <= 0 {
		opts.Height = defaultSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	dir := filepath.Join(opts.Dir, SubDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create plot directory: %w", err)
	}
	return &Plotter{
		dir:    dir,
		format: strings.TrimPrefix(opts.Format, "."),
		bins:   opts.Bins,
		width:  opts.Width,
		height: opts.Height,
		logger: opts.Logger,
		series: make(map[string]plotter.XYs),
		dirty:  make(map[string]bool),
	}, nil
}

// Path returns the chart file of a key.
func (p *Plotter) Path(key string) string {
	return filepath.Join(p.dir, fileName(key)+"."+p.format)
}

// Series returns the points recorded for key.
func (p *Plotter) Series(key string) plotter.XYs {
	return p.series[key]
}

// Scalar appends a point to the series of key. NaN and infinite values
// cannot be drawn and are skipped.
func (p *Plotter) Scalar(key string, value float64, step int) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		p.logger.Debugw("skipping non-finite point", "key", key, "step", step, "value", value)
		return nil
	}
	p.series[key] = append(p.series[key], plotter.XY{X: float64(step), Y: value})
	p.dirty[key] = true
	return nil
}

// Histogram draws values immediately to <key>_<step>.
func (p *Plotter) Histogram(key string, values []float64, step int) error {
	h := events.NewHistogram(values, p.bins)
	if h.Count == 0 {
		p.logger.Debugw("skipping empty histogram", "key", key, "step", step)
		return nil
	}
	lo, hi := h.Bins[0].Low, h.Bins[len(h.Bins)-1].High
	if math.IsInf(hi-lo, 0) {
		p.logger.Debugw("skipping histogram wider than float64 range", "key", key, "step", step)
		return nil
	}
	h1 := hbook.NewH1D(len(h.Bins), lo, hi)
	for _, b := range h.Bins {
		h1.Fill((b.Low+b.High)/2, b.Count)
	}

	plt := p.newPlot(key, "Value", "Count")
	plt.Title.Text = fmt.Sprintf("%s (step %d)", key, step)
	hh := hplot.NewH1D(h1)
	hh.FillColor = color.RGBA{R: 90, G: 140, B: 200, A: 255}
	plt.Add(hh)

	path := filepath.Join(p.dir, fmt.Sprintf("%s_%d.%s", fileName(key), step, p.format))
	return p.save(plt, path)
}

// Image is not rendered; image grids are written by the event backend.
func (p *Plotter) Image(string, *image.Gray, int) error {
	return nil
}

// Flush redraws every series that received points since the last flush.
func (p *Plotter) Flush() error {
	keys := make([]string, 0, len(p.dirty))
	for key := range p.dirty {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var err error
	for _, key := range keys {
		if perr := p.plotSeries(key); perr != nil {
			err = multierr.Append(err, perr)
			continue
		}
		delete(p.dirty, key)
	}
	return err
}

// Close draws any pending series.
func (p *Plotter) Close() error {
	return p.Flush()
}

func (p *Plotter) plotSeries(key string) error {
	plt := p.newPlot(key, "Step", key)
	if err := plotutil.AddLinePoints(plt.Plot, key, p.series[key]); err != nil {
		return fmt.Errorf("failed to add line plot: %w", err)
	}
	return p.save(plt, p.Path(key))
}

func (p *Plotter) newPlot(title, xLabel, yLabel string) *hplot.Plot {
	plt := hplot.New()
	plt.Title.Text = title

	grid := plotter.NewGrid()
	grid.Horizontal.Color = color.Gray{Y: 200}
	grid.Horizontal.Dashes = plotutil.Dashes(2)
	grid.Vertical.Color = color.Gray{Y: 200}
	grid.Vertical.Dashes = plotutil.Dashes(2)
	plt.Add(grid)

	plt.X.Label.Text = xLabel
	plt.X.Tick.Marker = hplot.Ticks{N: 10}
	plt.Y.Label.Text = yLabel
	plt.Y.Tick.Marker = hplot.Ticks{N: 10}
	return plt
}

func (p *Plotter) save(plt *hplot.Plot, path string) error {
	if err := plt.Save(p.width, p.height, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	p.logger.Debugw("plot saved", "path", path)
	return nil
}

func fileName(key string) string {
	return strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_").Replace(key)
}
