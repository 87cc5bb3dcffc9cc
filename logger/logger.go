package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wesleyorama2/meterlog/internal/output"
	"github.com/wesleyorama2/meterlog/meter"
)

// DefaultLogFrequency is the histogram cadence used when none is configured.
const DefaultLogFrequency = 10000

// Options configures a Logger.
type Options struct {
	// Dir receives train.csv and eval.csv. It is created if missing.
	Dir string

	// Backend mirrors scalars, histograms and images. Nil disables it.
	Backend Backend

	// Console is where dump lines are printed (default: stdout).
	Console io.Writer

	// NoColor disables colored scope labels; ForceColor enables them on
	// non-terminal writers.
	NoColor    bool
	ForceColor bool

	// LogFrequency is the default step cadence of LogHistogram.
	LogFrequency int

	// Logger receives diagnostics. Nil discards them.
	Logger *zap.SugaredLogger
}

// Logger routes "<scope>/<name>" metrics to the train or eval meter group and
// to an optional visualization backend.
type Logger struct {
	dir          string
	train        *meter.Group
	eval         *meter.Group
	backend      Backend
	logFrequency int
	logger       *zap.SugaredLogger
}

// New creates a Logger writing to opts.Dir. CSV files are opened on the first
// dump of each scope.
func New(opts Options) (*Logger, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("logger: log directory is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.LogFrequency <= 0 {
		opts.LogFrequency = DefaultLogFrequency
	}

	console := output.NewConsole(output.ConsoleConfig{
		Writer:      opts.Console,
		NoColor:     opts.NoColor,
		ForceColors: opts.ForceColor,
	})

	train, err := meter.NewGroup(filepath.Join(opts.Dir, "train.csv"), output.TrainSchema,
		meter.WithConsole(console), meter.WithLogger(opts.Logger.Named("train")))
	if err != nil {
		return nil, err
	}
	eval, err := meter.NewGroup(filepath.Join(opts.Dir, "eval.csv"), output.EvalSchema,
		meter.WithConsole(console), meter.WithLogger(opts.Logger.Named("eval")))
	if err != nil {
		return nil, err
	}

	return &Logger{
		dir:          opts.Dir,
		train:        train,
		eval:         eval,
		backend:      opts.Backend,
		logFrequency: opts.LogFrequency,
		logger:       opts.Logger,
	}, nil
}

// Dir returns the log directory.
func (l *Logger) Dir() string {
	return l.dir
}

// Group returns the meter group of a scope, or nil for an unknown scope.
func (l *Logger) Group(scope Scope) *meter.Group {
	switch scope {
	case Train:
		return l.train
	case Eval:
		return l.eval
	default:
		return nil
	}
}

// Log records value under key at step. The key must start with "train" or
// "eval". The scalar is forwarded to the backend before it is accumulated.
func (l *Logger) Log(key string, value any, step int) error {
	scope, err := ScopeOf(key)
	if err != nil {
		return err
	}
	v, err := ToFloat(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if l.backend != nil {
		if err := l.backend.Scalar(key, v, step); err != nil {
			return fmt.Errorf("backend scalar %s: %w", key, err)
		}
	}
	l.Group(scope).Log(key, v, 1)
	return nil
}

// LogMetrics logs every metric as "<scope>/<name>" at step. Names are visited
// in sorted order.
func (l *Logger) LogMetrics(metrics map[string]float64, step int, scope Scope) error {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := l.Log(scope.Key(name), metrics[name], step); err != nil {
			return err
		}
	}
	return nil
}

// Dump flushes the averages of scope, or of eval then train when scope is
// All, and then flushes the backend. Every step runs even when an earlier one
// fails; the errors are combined.
func (l *Logger) Dump(step int, scope Scope) error {
	if scope != All && !scope.Valid() {
		return fmt.Errorf("%w: dump scope %q", ErrInvalidScope, scope)
	}
	var err error
	if scope == All || scope == Eval {
		if derr := l.eval.Dump(step, string(Eval)); derr != nil {
			err = multierr.Append(err, fmt.Errorf("dump eval: %w", derr))
		}
	}
	if scope == All || scope == Train {
		if derr := l.train.Dump(step, string(Train)); derr != nil {
			err = multierr.Append(err, fmt.Errorf("dump train: %w", derr))
		}
	}
	if l.backend != nil {
		if ferr := l.backend.Flush(); ferr != nil {
			err = multierr.Append(err, fmt.Errorf("backend flush: %w", ferr))
		}
	}
	return err
}

// ShouldLog reports whether step falls on the cadence. A non-positive
// frequency selects the Logger's default.
func (l *Logger) ShouldLog(step, logFrequency int) bool {
	if logFrequency <= 0 {
		logFrequency = l.logFrequency
	}
	return step%logFrequency == 0
}

// LogHistogram forwards values to the backend when step falls on the
// cadence. Steps off the cadence are skipped before the key is checked.
func (l *Logger) LogHistogram(key string, values []float64, step, logFrequency int) error {
	if !l.ShouldLog(step, logFrequency) {
		return nil
	}
	if _, err := ScopeOf(key); err != nil {
		return err
	}
	if l.backend == nil {
		return nil
	}
	if err := l.backend.Histogram(key, values, step); err != nil {
		return fmt.Errorf("backend histogram %s: %w", key, err)
	}
	return nil
}

// LogImage lays out a batch of single-channel images as a grid and forwards
// it to the backend.
func (l *Logger) LogImage(key string, batch ImageBatch, step int) error {
	if _, err := ScopeOf(key); err != nil {
		return err
	}
	if l.backend == nil {
		return nil
	}
	grid, err := MakeGrid(batch, DefaultGridRow, DefaultGridPadding)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := l.backend.Image(key, grid, step); err != nil {
		return fmt.Errorf("backend image %s: %w", key, err)
	}
	return nil
}

// Close closes both CSV files and the backend.
func (l *Logger) Close() error {
	err := multierr.Combine(l.train.Close(), l.eval.Close())
	if l.backend != nil {
		err = multierr.Append(err, l.backend.Close())
	}
	if err != nil {
		l.logger.Errorw("failed to close logger", "dir", l.dir, "error", err)
	}
	return err
}
