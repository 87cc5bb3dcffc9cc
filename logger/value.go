package logger

import (
	"errors"
	"fmt"
	"time"
)

// Scalar is a single-element value that unwraps to a plain number, such as a
// framework tensor holding one element.
type Scalar interface {
	Item() float64
}

// ErrUnsupportedValue is returned when a logged value is not numeric.
var ErrUnsupportedValue = errors.New("unsupported metric value")

// ToFloat converts a logged value to float64. Durations are converted to
// seconds and booleans to 0 or 1.
func ToFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case time.Duration:
		return v.Seconds(), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case Scalar:
		return v.Item(), nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
}
