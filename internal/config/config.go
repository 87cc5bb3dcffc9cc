package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: METERLOG_LOG_DIR, METERLOG_RUN_STEPS, ...
const EnvPrefix = "METERLOG"

// ErrInvalidConfig wraps every schema and validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Backend kinds.
const (
	BackendEvents = "events"
	BackendPlot   = "plot"
	BackendProm   = "prom"
)

// Console color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

type ConsoleConfig struct {
	Color string `mapstructure:"color" yaml:"color"`
}

type BackendConfig struct {
	Kinds         []string `mapstructure:"kinds" yaml:"kinds"`
	HistogramBins int      `mapstructure:"histogram_bins" yaml:"histogram_bins"`
	PlotFormat    string   `mapstructure:"plot_format" yaml:"plot_format"`
	// PromDir defaults to the log directory.
	PromDir string `mapstructure:"prom_dir" yaml:"prom_dir,omitempty"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// RunConfig drives the synthetic training loop of "meterlog run".
type RunConfig struct {
	Name      string `mapstructure:"name" yaml:"name"`
	Steps     int    `mapstructure:"steps" yaml:"steps"`
	EvalEvery int    `mapstructure:"eval_every" yaml:"eval_every"`
	DumpEvery int    `mapstructure:"dump_every" yaml:"dump_every"`
	Seed      int64  `mapstructure:"seed" yaml:"seed"`
}

type Config struct {
	LogDir       string        `mapstructure:"log_dir" yaml:"log_dir"`
	LogFrequency int           `mapstructure:"log_frequency" yaml:"log_frequency"`
	Console      ConsoleConfig `mapstructure:"console" yaml:"console"`
	Backend      BackendConfig `mapstructure:"backend" yaml:"backend"`
	Logging      LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Run          RunConfig     `mapstructure:"run" yaml:"run"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"log-dir":       "log_dir",
	"log-frequency": "log_frequency",
	"color":         "console.color",
	"backend":       "backend.kinds",
	"log-level":     "logging.level",
	"log-format":    "logging.format",
	"steps":         "run.steps",
	"eval-every":    "run.eval_every",
	"dump-every":    "run.dump_every",
	"seed":          "run.seed",
	"name":          "run.name",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_dir", "./logs")
	v.SetDefault("log_frequency", 10000)
	v.SetDefault("console.color", ColorAuto)
	v.SetDefault("backend.kinds", []string{})
	v.SetDefault("backend.histogram_bins", 30)
	v.SetDefault("backend.plot_format", "png")
	v.SetDefault("backend.prom_dir", "")
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")
	v.SetDefault("run.name", "default")
	v.SetDefault("run.steps", 10000)
	v.SetDefault("run.eval_every", 2500)
	v.SetDefault("run.dump_every", 1000)
	v.SetDefault("run.seed", 1)
}

// Load resolves the configuration from defaults, the optional YAML file at
// path, METERLOG_* environment variables and the changed flags of flags, in
// increasing priority. The file is checked against the embedded JSON schema
// before it is decoded.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		path, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("failed to expand config path: %w", err)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := ValidateSchema(raw); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	logDir, err := homedir.Expand(cfg.LogDir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand log_dir: %w", err)
	}
	cfg.LogDir = logDir
	if cfg.Backend.PromDir == "" {
		cfg.Backend.PromDir = cfg.LogDir
	} else if cfg.Backend.PromDir, err = homedir.Expand(cfg.Backend.PromDir); err != nil {
		return nil, fmt.Errorf("failed to expand backend.prom_dir: %w", err)
	}
	cfg.Backend.Kinds = splitKinds(cfg.Backend.Kinds)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// splitKinds accepts both list entries and comma separated values.
func splitKinds(kinds []string) []string {
	var out []string
	for _, k := range kinds {
		for _, part := range strings.Split(k, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, strings.ToLower(part))
			}
		}
	}
	return out
}

// HasBackend reports whether kind is enabled.
func (c *Config) HasBackend(kind string) bool {
	for _, k := range c.Backend.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}
