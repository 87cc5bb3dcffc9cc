package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"

	"github.com/wesleyorama2/meterlog/backend"
	"github.com/wesleyorama2/meterlog/backend/events"
	"github.com/wesleyorama2/meterlog/backend/plot"
	"github.com/wesleyorama2/meterlog/backend/prom"
	"github.com/wesleyorama2/meterlog/internal/config"
	"github.com/wesleyorama2/meterlog/internal/logging"
	"github.com/wesleyorama2/meterlog/internal/trainer"
	"github.com/wesleyorama2/meterlog/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulated training loop and log its metrics",
	Long: `Run drives a simulated agent through a training run, logging episode
statistics, throughput, Q-value histograms and evaluation frames.

Train metrics are dumped every --dump-every steps and evaluations run every
--eval-every steps:
  meterlog run --log-dir runs/exp1 --steps 20000 --backend events,plot

Settings can also come from a file and METERLOG_* environment variables:
  METERLOG_RUN_SEED=3 meterlog run -c meterlog.yaml`,
	RunE: runTraining,
}

func runTraining(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	log, err := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}
	defer log.Sync()

	snapshot, err := cfg.WriteSnapshot()
	if err != nil {
		return err
	}
	log.Infow("configuration resolved", "snapshot", snapshot, "backends", cfg.Backend.Kinds)

	vis, err := newBackend(cfg, log)
	if err != nil {
		return err
	}

	l, err := logger.New(logger.Options{
		Dir:          cfg.LogDir,
		Backend:      vis,
		Console:      cmd.OutOrStdout(),
		NoColor:      cfg.Console.Color == config.ColorNever,
		ForceColor:   cfg.Console.Color == config.ColorAlways,
		LogFrequency: cfg.LogFrequency,
		Logger:       log,
	})
	if err != nil {
		if vis != nil {
			err = multierr.Append(err, vis.Close())
		}
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := trainer.Run(ctx, l, trainer.RunConfig{
		Steps:        cfg.Run.Steps,
		EvalEvery:    cfg.Run.EvalEvery,
		DumpEvery:    cfg.Run.DumpEvery,
		Seed:         cfg.Run.Seed,
		LogFrequency: cfg.LogFrequency,
	}, log.Named("trainer"))
	err = multierr.Append(err, l.Close())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "run %q finished: %d steps, %d episodes, %d evaluations, logs in %s\n",
		cfg.Run.Name, stats.Steps, stats.Episodes, stats.Evaluations, cfg.LogDir)
	return nil
}

// newBackend opens the configured visualization backends. It returns nil
// when none are enabled.
func newBackend(cfg *config.Config, log *zap.SugaredLogger) (logger.Backend, error) {
	var opened []logger.Backend
	fail := func(err error) (logger.Backend, error) {
		for _, b := range opened {
			err = multierr.Append(err, b.Close())
		}
		return nil, err
	}

	if cfg.HasBackend(config.BackendEvents) {
		w, err := events.New(events.Options{
			Dir:    cfg.LogDir,
			Bins:   cfg.Backend.HistogramBins,
			Logger: log.Named("events"),
		})
		if err != nil {
			return fail(err)
		}
		opened = append(opened, w)
	}
	if cfg.HasBackend(config.BackendPlot) {
		p, err := plot.New(plot.Options{
			Dir:    cfg.LogDir,
			Format: cfg.Backend.PlotFormat,
			Bins:   cfg.Backend.HistogramBins,
			Width:  6 * vg.Inch,
			Height: 4 * vg.Inch,
			Logger: log.Named("plot"),
		})
		if err != nil {
			return fail(err)
		}
		opened = append(opened, p)
	}
	if cfg.HasBackend(config.BackendProm) {
		e, err := prom.New(prom.Options{
			Dir:         cfg.Backend.PromDir,
			ConstLabels: prometheus.Labels{"run": cfg.Run.Name},
			Logger:      log.Named("prom"),
		})
		if err != nil {
			return fail(err)
		}
		opened = append(opened, e)
	}
	return backend.NewMulti(opened...), nil
}

func init() {
	runCmd.Flags().String("log-dir", "", "Directory for train.csv, eval.csv and backend output")
	runCmd.Flags().Int("log-frequency", 0, "Step cadence of histogram logging")
	runCmd.Flags().String("color", "", "Console colors: auto, always, never")
	runCmd.Flags().StringSlice("backend", nil, "Visualization backends: events, plot, prom")
	runCmd.Flags().String("name", "", "Run name, attached to Prometheus series")
	runCmd.Flags().Int("steps", 0, "Number of agent steps")
	runCmd.Flags().Int("eval-every", 0, "Steps between evaluations")
	runCmd.Flags().Int("dump-every", 0, "Steps between train dumps")
	runCmd.Flags().Int64("seed", 0, "Random seed")
}
