package output

import (
	"github.com/fatih/color"
)

// ColorScheme defines the colors used for the scope labels of a console line
type ColorScheme struct {
	Train   *color.Color
	Eval    *color.Color
	Warning *color.Color
}

// DefaultColorScheme returns the default color scheme
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Train:   color.New(color.FgYellow),
		Eval:    color.New(color.FgGreen),
		Warning: color.New(color.FgRed, color.Bold),
	}
}

// NoColorScheme returns a color scheme with all colors disabled
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()

	scheme.Train.DisableColor()
	scheme.Eval.DisableColor()
	scheme.Warning.DisableColor()

	return scheme
}

// ForceColorScheme returns the default color scheme with colors enabled even
// when the process is not attached to a terminal.
func ForceColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()

	scheme.Train.EnableColor()
	scheme.Eval.EnableColor()
	scheme.Warning.EnableColor()

	return scheme
}

// ScopeColor returns the color used for the given scope label.
// Anything that is not "train" is rendered like eval.
func (s *ColorScheme) ScopeColor(scope string) *color.Color {
	if scope == "train" {
		return s.Train
	}
	return s.Eval
}
