package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText prints one console line per record
	FormatText OutputFormat = "text"
	// FormatJSON outputs a JSON array of records
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs a YAML sequence of records
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat returns the format named s (case-insensitive).
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// RecordFormatter writes a batch of dumped records of one scope.
type RecordFormatter interface {
	FormatRecords(w io.Writer, scope string, records []map[string]float64) error
}

// TextFormatter renders records like the dump console line.
type TextFormatter struct {
	Colors *ColorScheme
}

func (f *TextFormatter) FormatRecords(w io.Writer, scope string, records []map[string]float64) error {
	colors := f.Colors
	if colors == nil {
		colors = NoColorScheme()
	}
	c := &Console{writer: w, colors: colors}
	schema := SchemaFor(scope)
	for _, record := range records {
		if err := c.Write(record, scope, schema); err != nil {
			return err
		}
	}
	return nil
}

// JSONFormatter formats records as a JSON array
type JSONFormatter struct {
	Pretty bool
}

func (f *JSONFormatter) FormatRecords(w io.Writer, _ string, records []map[string]float64) error {
	if records == nil {
		records = []map[string]float64{}
	}
	enc := json.NewEncoder(w)
	if f.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return nil
}

// YAMLFormatter formats records as a YAML sequence
type YAMLFormatter struct{}

func (f *YAMLFormatter) FormatRecords(w io.Writer, _ string, records []map[string]float64) error {
	if records == nil {
		records = []map[string]float64{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return enc.Close()
}

// GetFormatter returns the appropriate formatter for the given format
func GetFormatter(format OutputFormat, noColor bool) RecordFormatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		colors := DefaultColorScheme()
		if noColor {
			colors = NoColorScheme()
		}
		return &TextFormatter{Colors: colors}
	}
}
