package output

import (
	"errors"
	"fmt"
)

// FieldType selects how a console field is rendered.
type FieldType string

const (
	// FieldInt renders the value truncated to an integer
	FieldInt FieldType = "int"
	// FieldFloat renders the value with four decimals
	FieldFloat FieldType = "float"
	// FieldDuration renders a number of seconds as H:MM:SS
	FieldDuration FieldType = "time"
)

// ErrUnknownFieldType is returned when a field declares a type the console
// cannot render.
var ErrUnknownFieldType = errors.New("invalid format type")

// Field is one column of a console line.
type Field struct {
	Name  string    // key in the dumped record
	Label string    // short display label
	Type  FieldType // rendering
}

// Schema is the ordered list of fields printed for a scope.
type Schema []Field

// TrainSchema is the console layout for the train scope.
var TrainSchema = Schema{
	{Name: "frame", Label: "F", Type: FieldInt},
	{Name: "step", Label: "S", Type: FieldInt},
	{Name: "episode", Label: "E", Type: FieldInt},
	{Name: "episode_length", Label: "L", Type: FieldInt},
	{Name: "episode_reward", Label: "R", Type: FieldFloat},
	{Name: "imitation_reward", Label: "R_i", Type: FieldFloat},
	{Name: "buffer_size", Label: "BS", Type: FieldInt},
	{Name: "fps", Label: "FPS", Type: FieldFloat},
	{Name: "total_time", Label: "T", Type: FieldDuration},
}

// EvalSchema is the console layout for the eval scope.
var EvalSchema = Schema{
	{Name: "frame", Label: "F", Type: FieldInt},
	{Name: "step", Label: "S", Type: FieldInt},
	{Name: "episode", Label: "E", Type: FieldInt},
	{Name: "episode_length", Label: "L", Type: FieldInt},
	{Name: "episode_reward", Label: "R", Type: FieldFloat},
	{Name: "imitation_reward", Label: "R_i", Type: FieldFloat},
	{Name: "total_time", Label: "T", Type: FieldDuration},
}

// SchemaFor returns the declared schema of a scope.
func SchemaFor(scope string) Schema {
	if scope == "train" {
		return TrainSchema
	}
	return EvalSchema
}

// Validate reports the first field whose type is unknown.
func (s Schema) Validate() error {
	for _, f := range s {
		switch f.Type {
		case FieldInt, FieldFloat, FieldDuration:
		default:
			return fmt.Errorf("field %q: %w: %s", f.Name, ErrUnknownFieldType, f.Type)
		}
	}
	return nil
}
