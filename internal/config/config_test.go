package config_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"

	"github.com/wesleyorama2/meterlog/internal/config"
)

var _ = Describe("Config", func() {
	var tempDir string

	writeConfig := func(content string) string {
		path := filepath.Join(tempDir, "meterlog.yaml")
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "meterlog-config-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
		os.Unsetenv("METERLOG_LOG_DIR")
		os.Unsetenv("METERLOG_RUN_STEPS")
		os.Unsetenv("METERLOG_BACKEND_KINDS")
	})

	Describe("Load", func() {
		Context("without a file", func() {
			It("should use the defaults", func() {
				cfg, err := config.Load("", nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.LogDir).To(Equal("./logs"))
				Expect(cfg.LogFrequency).To(Equal(10000))
				Expect(cfg.Console.Color).To(Equal(config.ColorAuto))
				Expect(cfg.Backend.Kinds).To(BeEmpty())
				Expect(cfg.Backend.HistogramBins).To(Equal(30))
				Expect(cfg.Backend.PromDir).To(Equal("./logs"))
				Expect(cfg.Run.Steps).To(Equal(10000))
			})
		})

		Context("with a valid config file", func() {
			It("should read every section", func() {
				path := writeConfig(`
log_dir: ` + tempDir + `/runs
log_frequency: 50
console:
  color: never
backend:
  kinds: [events, prom]
  histogram_bins: 12
logging:
  level: debug
  format: json
run:
  name: walker
  steps: 400
  eval_every: 100
  dump_every: 20
  seed: 7
`)
				cfg, err := config.Load(path, nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.LogDir).To(Equal(tempDir + "/runs"))
				Expect(cfg.LogFrequency).To(Equal(50))
				Expect(cfg.Console.Color).To(Equal(config.ColorNever))
				Expect(cfg.Backend.Kinds).To(Equal([]string{"events", "prom"}))
				Expect(cfg.HasBackend(config.BackendProm)).To(BeTrue())
				Expect(cfg.HasBackend(config.BackendPlot)).To(BeFalse())
				Expect(cfg.Backend.HistogramBins).To(Equal(12))
				Expect(cfg.Logging.Format).To(Equal("json"))
				Expect(cfg.Run.Name).To(Equal("walker"))
				Expect(cfg.Run.Seed).To(Equal(int64(7)))
			})
		})

		Context("with environment variables", func() {
			It("should override the file", func() {
				path := writeConfig("run:\n  steps: 400\n")
				os.Setenv("METERLOG_RUN_STEPS", "900")
				os.Setenv("METERLOG_BACKEND_KINDS", "events,plot")

				cfg, err := config.Load(path, nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Run.Steps).To(Equal(900))
				Expect(cfg.Backend.Kinds).To(Equal([]string{"events", "plot"}))
			})
		})

		Context("with flags", func() {
			It("should prefer changed flags over the environment", func() {
				os.Setenv("METERLOG_LOG_DIR", "/from/env")

				flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
				flags.String("log-dir", "", "")
				flags.Int("steps", 0, "")
				Expect(flags.Parse([]string{"--log-dir", tempDir})).To(Succeed())

				cfg, err := config.Load("", flags)
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.LogDir).To(Equal(tempDir))
				Expect(cfg.Run.Steps).To(Equal(10000), "unchanged flags keep lower layers")
			})
		})

		Context("with schema violations", func() {
			It("should reject unknown keys", func() {
				path := writeConfig("log_dir: x\nverbose: true\n")
				_, err := config.Load(path, nil)
				Expect(err).To(HaveOccurred())
				Expect(errors.Is(err, config.ErrInvalidConfig)).To(BeTrue())
			})

			It("should reject unknown backends", func() {
				path := writeConfig("backend:\n  kinds: [tensorboard]\n")
				_, err := config.Load(path, nil)
				Expect(err).To(MatchError(config.ErrInvalidConfig))
				Expect(err.Error()).To(ContainSubstring("/backend/kinds/0"))
			})

			It("should reject wrong types", func() {
				path := writeConfig("run:\n  steps: many\n")
				_, err := config.Load(path, nil)
				Expect(err).To(MatchError(config.ErrInvalidConfig))
			})
		})

		Context("with a missing file", func() {
			It("should fail", func() {
				_, err := config.Load(filepath.Join(tempDir, "absent.yaml"), nil)
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Validate", func() {
		var cfg *config.Config

		BeforeEach(func() {
			var err error
			cfg, err = config.Load("", nil)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should accept the defaults", func() {
			Expect(cfg.Validate()).To(Succeed())
		})

		It("should reject a zero log frequency", func() {
			cfg.LogFrequency = 0
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject duplicate backends", func() {
			cfg.Backend.Kinds = []string{"events", "events"}
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject unknown log levels", func() {
			cfg.Logging.Level = "chatty"
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject unknown color modes", func() {
			cfg.Console.Color = "rainbow"
			Expect(cfg.Validate()).NotTo(Succeed())
		})
	})

	Describe("ValidateSchema", func() {
		It("should accept an empty document", func() {
			Expect(config.ValidateSchema(nil)).To(Succeed())
		})

		It("should report every violation", func() {
			err := config.ValidateSchema([]byte("log_frequency: 0\nconsole:\n  color: pink\n"))
			var verrs config.ValidationErrors
			Expect(errors.As(err, &verrs)).To(BeTrue())
			Expect(len(verrs)).To(BeNumerically(">=", 2))
		})
	})

	Describe("Snapshot", func() {
		It("should round-trip through Load", func() {
			cfg, err := config.Load("", nil)
			Expect(err).NotTo(HaveOccurred())
			cfg.LogDir = filepath.Join(tempDir, "run")
			cfg.Backend.Kinds = []string{"plot"}

			path, err := cfg.WriteSnapshot()
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal(filepath.Join(tempDir, "run", config.SnapshotFile)))

			loaded, err := config.Load(path, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})

		It("should write YAML keys", func() {
			cfg, err := config.Load("", nil)
			Expect(err).NotTo(HaveOccurred())
			var buf bytes.Buffer
			Expect(cfg.Snapshot(&buf)).To(Succeed())
			Expect(buf.String()).To(ContainSubstring("log_frequency: 10000"))
			Expect(buf.String()).To(ContainSubstring("histogram_bins: 30"))
		})
	})
})
