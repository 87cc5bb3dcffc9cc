// Package prom exposes logged metrics as Prometheus series and writes them to
// a textfile for the node exporter's textfile collector.
package prom

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/wesleyorama2/meterlog/logger"
)

// FileName is the textfile written into the configured directory.
const FileName = "metrics.prom"

var _ logger.Backend = (*Exporter)(nil)

// Options configures an Exporter.
type Options struct {
	// Dir receives metrics.prom.
	Dir string
	// Namespace prefixes every metric name (default "meterlog").
	Namespace string
	// ConstLabels are attached to every series, e.g. the run id.
	ConstLabels prometheus.Labels
	// Buckets of the value histogram (default prometheus.DefBuckets).
	Buckets []float64
	// Logger receives diagnostics. Nil discards them.
	Logger *zap.SugaredLogger
}

// Exporter is a logger.Backend backed by a private Prometheus registry.
type Exporter struct {
	path     string
	registry *prometheus.Registry
	logger   *zap.SugaredLogger

	scalar *prometheus.GaugeVec
	step   *prometheus.GaugeVec
	values *prometheus.HistogramVec
	images *prometheus.CounterVec
}

// New registers the metric families in a fresh registry.
func New(opts Options) (*Exporter, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("prom: directory is required")
	}
	if opts.Namespace == "" {
		opts.Namespace = "meterlog"
	}
	if len(opts.Buckets) == 0 {
		opts.Buckets = prometheus.DefBuckets
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create textfile directory: %w", err)
	}

	e := &Exporter{
		path:     filepath.Join(opts.Dir, FileName),
		registry: prometheus.NewRegistry(),
		logger:   opts.Logger,
		scalar: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "scalar",
			Help:        "Last logged value of a scalar metric.",
			ConstLabels: opts.ConstLabels,
		}, []string{"key"}),
		step: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "step",
			Help:        "Step of the last logged value of a metric.",
			ConstLabels: opts.ConstLabels,
		}, []string{"key"}),
		values: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "histogram_values",
			Help:        "Values passed to histogram logging.",
			ConstLabels: opts.ConstLabels,
			Buckets:     opts.Buckets,
		}, []string{"key"}),
		images: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "images_total",
			Help:        "Number of image grids logged.",
			ConstLabels: opts.ConstLabels,
		}, []string{"key"}),
	}
	for _, c := range []prometheus.Collector{e.scalar, e.step, e.values, e.images} {
		if err := e.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return e, nil
}

// Path returns the textfile path.
func (e *Exporter) Path() string {
	return e.path
}

func (e *Exporter) Scalar(key string, value float64, step int) error {
	e.scalar.WithLabelValues(key).Set(value)
	e.step.WithLabelValues(key).Set(float64(step))
	return nil
}

func (e *Exporter) Histogram(key string, values []float64, step int) error {
	obs := e.values.WithLabelValues(key)
	for _, v := range values {
		obs.Observe(v)
	}
	e.step.WithLabelValues(key).Set(float64(step))
	return nil
}

func (e *Exporter) Image(key string, _ *image.Gray, step int) error {
	e.images.WithLabelValues(key).Inc()
	e.step.WithLabelValues(key).Set(float64(step))
	return nil
}

// Flush rewrites the textfile atomically.
func (e *Exporter) Flush() error {
	if err := prometheus.WriteToTextfile(e.path, e.registry); err != nil {
		return fmt.Errorf("failed to write %s: %w", e.path, err)
	}
	e.logger.Debugw("metrics textfile written", "path", e.path)
	return nil
}

// Close writes the final textfile.
func (e *Exporter) Close() error {
	return e.Flush()
}
