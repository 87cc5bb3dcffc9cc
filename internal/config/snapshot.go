package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SnapshotFile is written into the log directory at the start of a run.
const SnapshotFile = "config.yaml"

// Snapshot writes the resolved configuration as YAML.
func (c *Config) Snapshot(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}

// WriteSnapshot writes the configuration to <log_dir>/config.yaml and returns
// the file path.
func (c *Config) WriteSnapshot() (string, error) {
	if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(c.LogDir, SnapshotFile)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := c.Snapshot(f); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
