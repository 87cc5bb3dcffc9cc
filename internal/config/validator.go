package config

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogDir, validation.Required),
		validation.Field(&c.LogFrequency, validation.Required, validation.Min(1)),
		validation.Field(&c.Console,
			validation.By(func(value interface{}) error {
				cc, ok := value.(ConsoleConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ConsoleConfig")
				}
				return validation.ValidateStruct(&cc,
					validation.Field(&cc.Color,
						validation.Required,
						validation.In(ColorAuto, ColorAlways, ColorNever),
					),
				)
			}),
		),
		validation.Field(&c.Backend,
			validation.By(func(value interface{}) error {
				bc, ok := value.(BackendConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a BackendConfig")
				}
				return validation.ValidateStruct(&bc,
					validation.Field(&bc.Kinds,
						validation.Each(validation.In(BackendEvents, BackendPlot, BackendProm)),
						validation.By(uniqueKinds),
					),
					validation.Field(&bc.HistogramBins, validation.Required, validation.Min(1), validation.Max(1000)),
					validation.Field(&bc.PlotFormat,
						validation.Required,
						validation.In("png", "svg", "pdf", "eps", "jpg", "jpeg", "tif", "tiff"),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level, validation.By(validateLevel)),
					validation.Field(&lc.Format, validation.Required, validation.In("console", "json")),
				)
			}),
		),
		validation.Field(&c.Run,
			validation.By(func(value interface{}) error {
				rc, ok := value.(RunConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a RunConfig")
				}
				return validation.ValidateStruct(&rc,
					validation.Field(&rc.Name, validation.Required),
					validation.Field(&rc.Steps, validation.Required, validation.Min(1)),
					validation.Field(&rc.EvalEvery, validation.Required, validation.Min(1)),
					validation.Field(&rc.DumpEvery, validation.Required, validation.Min(1)),
				)
			}),
		),
	)
}

func validateLevel(value interface{}) error {
	level, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}
	switch strings.ToLower(level) {
	case "", "1", "debug", "info", "warn", "error":
		return nil
	}
	return validation.NewError("validation_invalid_level", "must be one of debug, info, warn, error")
}

func uniqueKinds(value interface{}) error {
	kinds, ok := value.([]string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a list of strings")
	}
	seen := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		if seen[k] {
			return validation.NewError("validation_duplicate_backend", "backend "+k+" listed twice")
		}
		seen[k] = true
	}
	return nil
}
