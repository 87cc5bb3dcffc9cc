// Package output renders dumped metric records as single console lines.
package output

import (
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// labelWidth is the visible width the scope label is padded to.
const labelWidth = 14

// Console writes one formatted line per dump.
type Console struct {
	writer io.Writer
	colors *ColorScheme
}

// ConsoleConfig contains configuration for Console.
type ConsoleConfig struct {
	Writer      io.Writer
	ForceColors bool
	NoColor     bool
}

// NewConsole creates a console writer. Colors are used when the writer is a
// terminal that supports them, unless NoColor is set or ForceColors overrides
// detection.
func NewConsole(config ConsoleConfig) *Console {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}

	var colors *ColorScheme
	switch {
	case config.NoColor:
		colors = NoColorScheme()
	case config.ForceColors:
		colors = ForceColorScheme()
	case isTerminal(config.Writer) && supportsColors():
		colors = ForceColorScheme()
	default:
		colors = NoColorScheme()
	}

	return &Console{writer: config.Writer, colors: colors}
}

// isTerminal checks if the writer is a terminal.
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return checkIsTerminal(f)
	}
	return false
}

// supportsColors checks if the terminal supports colors.
func supportsColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if runtime.GOOS == "windows" {
		return true
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

// Format renders a record as a console line without the trailing newline.
// Fields are printed in schema order; fields absent from the record print as 0.
func (c *Console) Format(record map[string]float64, scope string, schema Schema) (string, error) {
	label := c.colors.ScopeColor(scope).Sprint(scope)
	pieces := make([]string, 0, len(schema)+1)
	pieces = append(pieces, "| "+padVisible(label, labelWidth))

	for _, field := range schema {
		piece, err := FormatField(field, record[field.Name])
		if err != nil {
			return "", err
		}
		pieces = append(pieces, piece)
	}
	return strings.Join(pieces, " | "), nil
}

// Write formats the record and writes it as one line.
func (c *Console) Write(record map[string]float64, scope string, schema Schema) error {
	line, err := c.Format(record, scope, schema)
	if err != nil {
		return err
	}
	return c.Println(line)
}

// Println writes an already formatted line.
func (c *Console) Println(line string) error {
	_, err := fmt.Fprintln(c.writer, line)
	return err
}

// FormatField renders "label: value" for one field.
func FormatField(field Field, value float64) (string, error) {
	switch field.Type {
	case FieldInt:
		return fmt.Sprintf("%s: %s", field.Label, formatInt(value)), nil
	case FieldFloat:
		return fmt.Sprintf("%s: %.4f", field.Label, value), nil
	case FieldDuration:
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Sprintf("%s: %s", field.Label, formatInt(value)), nil
		}
		return fmt.Sprintf("%s: %s", field.Label, FormatClock(int64(value))), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFieldType, field.Type)
	}
}

func formatInt(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return strconv.FormatFloat(value, 'f', -1, 64)
	}
	return strconv.FormatInt(int64(value), 10)
}

// FormatClock renders a number of seconds as H:MM:SS, prefixed with the day
// count once it exceeds a day ("1 day, 0:00:05", "-1 day, 23:59:50").
func FormatClock(seconds int64) string {
	days := seconds / 86400
	rem := seconds % 86400
	if rem < 0 {
		rem += 86400
		days--
	}
	clock := fmt.Sprintf("%d:%02d:%02d", rem/3600, (rem%3600)/60, rem%60)
	if days == 0 {
		return clock
	}
	unit := "days"
	if days == 1 || days == -1 {
		unit = "day"
	}
	return fmt.Sprintf("%d %s, %s", days, unit, clock)
}

// padVisible right-pads s with spaces to width visible characters.
func padVisible(s string, width int) string {
	visible := len(stripANSI(s))
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

// stripANSI removes ANSI escape codes from a string.
func stripANSI(s string) string {
	var result strings.Builder
	inEscape := false

	for i := 0; i < len(s); i++ {
		if s[i] == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if (s[i] >= 'a' && s[i] <= 'z') || (s[i] >= 'A' && s[i] <= 'Z') {
				inEscape = false
			}
			continue
		}
		result.WriteByte(s[i])
	}

	return result.String()
}
