// Package trainer drives a simulated agent through a training run and logs
// its statistics the way a reinforcement learning loop would: episode
// returns as they complete, throughput on every dump, and a batch of
// evaluation episodes on a fixed cadence.
package trainer

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wesleyorama2/meterlog/logger"
)

const (
	defaultActionRepeat = 2
	defaultEvalEpisodes = 5
	defaultBufferSize   = 100_000
	obsSize             = 8
	numQValues          = 64
)

// RunConfig captures the knobs required by the training loop.
type RunConfig struct {
	Steps     int
	EvalEvery int
	DumpEvery int
	Seed      int64

	// ActionRepeat converts agent steps to environment frames.
	ActionRepeat int
	// EvalEpisodes is the number of episodes per evaluation.
	EvalEpisodes int
	// BufferSize caps the reported replay buffer size.
	BufferSize int
	// LogFrequency gates Q-value histograms; 0 uses the logger default.
	LogFrequency int
}

// Stats summarizes a finished run.
type Stats struct {
	Steps       int
	Episodes    int
	Evaluations int
}

// Run executes the simulated workload, logging to l. The train scope is
// dumped every DumpEvery steps and an evaluation is logged and dumped every
// EvalEvery steps. Cancelling ctx dumps whatever was accumulated and returns
// ctx.Err().
func Run(ctx context.Context, l *logger.Logger, cfg RunConfig, log *zap.SugaredLogger) (Stats, error) {
	if cfg.Steps <= 0 {
		return Stats{}, errors.New("trainer: steps must be > 0")
	}
	if cfg.EvalEvery <= 0 || cfg.DumpEvery <= 0 {
		return Stats{}, errors.New("trainer: eval and dump cadence must be > 0")
	}
	if cfg.ActionRepeat <= 0 {
		cfg.ActionRepeat = defaultActionRepeat
	}
	if cfg.EvalEpisodes <= 0 {
		cfg.EvalEpisodes = defaultEvalEpisodes
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	env := newEnv(rng)
	start := time.Now()
	lastDump, lastDumpStep := start, 0
	var stats Stats

	for step := 1; step <= cfg.Steps; step++ {
		if err := ctx.Err(); err != nil {
			log.Infow("training interrupted", "step", step)
			return stats, multierr.Append(err, l.Dump(step*cfg.ActionRepeat, logger.All))
		}
		frame := step * cfg.ActionRepeat
		progress := float64(step) / float64(cfg.Steps)

		if ep, done := env.step(progress); done {
			stats.Episodes++
			if err := l.LogMetrics(map[string]float64{
				"episode_reward": ep.reward,
				"episode_length": float64(ep.length * cfg.ActionRepeat),
			}, frame, logger.Train); err != nil {
				return stats, err
			}
		}

		if err := l.LogHistogram("train/critic/q", env.qValues(progress), frame, cfg.LogFrequency); err != nil {
			return stats, err
		}

		if step%cfg.DumpEvery == 0 {
			now := time.Now()
			fps := float64((step-lastDumpStep)*cfg.ActionRepeat) / math.Max(now.Sub(lastDump).Seconds(), 1e-9)
			lastDump, lastDumpStep = now, step

			if err := l.LogMetrics(map[string]float64{
				"fps":         fps,
				"step":        float64(step),
				"episode":     float64(stats.Episodes),
				"buffer_size": float64(min(step, cfg.BufferSize)),
			}, frame, logger.Train); err != nil {
				return stats, err
			}
			if err := l.Log("train/total_time", now.Sub(start), frame); err != nil {
				return stats, err
			}
			if err := l.Dump(frame, logger.Train); err != nil {
				return stats, err
			}
		}

		if step%cfg.EvalEvery == 0 {
			stats.Evaluations++
			if err := evaluate(l, env, cfg, step, stats.Episodes, progress, start); err != nil {
				return stats, err
			}
			log.Debugw("evaluation finished", "step", step, "evaluations", stats.Evaluations)
		}
		stats.Steps = step
	}
	return stats, nil
}

func evaluate(l *logger.Logger, env *env, cfg RunConfig, step, episode int, progress float64, start time.Time) error {
	frame := step * cfg.ActionRepeat
	return l.WithDump(frame, logger.Eval, func(log logger.LogFunc) error {
		var reward, length float64
		for i := 0; i < cfg.EvalEpisodes; i++ {
			ep := env.rollout(progress)
			reward += ep.reward
			length += float64(ep.length * cfg.ActionRepeat)
		}
		n := float64(cfg.EvalEpisodes)
		if err := log("episode_reward", reward/n); err != nil {
			return err
		}
		if err := log("episode_length", length/n); err != nil {
			return err
		}
		if err := log("episode", episode); err != nil {
			return err
		}
		if err := log("step", step); err != nil {
			return err
		}
		if err := log("total_time", time.Since(start)); err != nil {
			return err
		}
		return l.LogImage("eval/observation", env.observations(4), frame)
	})
}
