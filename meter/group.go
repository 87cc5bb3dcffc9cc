package meter

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wesleyorama2/meterlog/internal/output"
)

// Group owns the meters of one scope together with its CSV sink and console.
type Group struct {
	sink    *CSVSink
	schema  output.Schema
	console *output.Console
	logger  *zap.SugaredLogger

	meters map[string]*Average
}

// GroupOption configures a Group.
type GroupOption func(*Group)

// WithConsole sets the console the group prints to. Defaults to stdout.
func WithConsole(console *output.Console) GroupOption {
	return func(g *Group) {
		g.console = console
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *zap.SugaredLogger) GroupOption {
	return func(g *Group) {
		g.logger = logger
	}
}

// NewGroup creates a group that dumps to the CSV file at path and prints
// fields of schema to the console. A schema with an unknown field type is
// rejected.
func NewGroup(path string, schema output.Schema, opts ...GroupOption) (*Group, error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid console schema for %s: %w", path, err)
	}
	g := &Group{
		schema: schema,
		meters: make(map[string]*Average),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = zap.NewNop().Sugar()
	}
	if g.console == nil {
		g.console = output.NewConsole(output.ConsoleConfig{})
	}
	g.sink = NewCSVSink(path, g.logger)
	return g, nil
}

// Log adds value with weight n to the meter for key, creating it if absent.
func (g *Group) Log(key string, value float64, n int) {
	m, ok := g.meters[key]
	if !ok {
		m = &Average{}
		g.meters[key] = m
	}
	m.Update(value, n)
}

// Len returns the number of meters accumulated since the last dump.
func (g *Group) Len() int {
	return len(g.meters)
}

// Sink returns the group's CSV sink.
func (g *Group) Sink() *CSVSink {
	return g.sink
}

// Snapshot returns the current means keyed by field name, without the
// synthetic frame field.
func (g *Group) Snapshot() Record {
	record := make(Record, len(g.meters)+1)
	for key, m := range g.meters {
		record[FieldName(key)] = m.Value()
	}
	return record
}

// Dump writes the current means with frame=step to the CSV log and the
// console, then clears all meters. Dumping an empty group is a no-op.
// If the record cannot be formatted or written the meters are left untouched;
// once the row is in the CSV log they are cleared even if printing fails.
func (g *Group) Dump(step int, scope string) error {
	if len(g.meters) == 0 {
		return nil
	}

	record := g.Snapshot()
	record[FrameField] = float64(step)

	line, err := g.console.Format(record, scope, g.schema)
	if err != nil {
		return fmt.Errorf("failed to format %s metrics: %w", scope, err)
	}
	if err := g.sink.Write(record); err != nil {
		return err
	}
	g.meters = make(map[string]*Average)

	if err := g.console.Println(line); err != nil {
		return fmt.Errorf("failed to print %s metrics: %w", scope, err)
	}
	return nil
}

// Close closes the CSV sink.
func (g *Group) Close() error {
	return g.sink.Close()
}
