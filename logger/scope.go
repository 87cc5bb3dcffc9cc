package logger

import (
	"errors"
	"fmt"
	"strings"
)

// Scope partitions metrics into independent accumulation streams.
type Scope string

const (
	// Train is the scope of training statistics, dumped to train.csv.
	Train Scope = "train"
	// Eval is the scope of evaluation statistics, dumped to eval.csv.
	Eval Scope = "eval"
	// All selects both scopes in Dump.
	All Scope = ""
)

// ErrInvalidScope is returned for keys that do not start with a known scope.
var ErrInvalidScope = errors.New("key must start with \"train\" or \"eval\"")

// ScopeOf returns the scope a metric key is routed to.
func ScopeOf(key string) (Scope, error) {
	switch {
	case strings.HasPrefix(key, string(Train)):
		return Train, nil
	case strings.HasPrefix(key, string(Eval)):
		return Eval, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScope, key)
	}
}

// Key joins a scope and a metric name.
func (s Scope) Key(name string) string {
	return string(s) + "/" + name
}

// Valid reports whether s names a single scope.
func (s Scope) Valid() bool {
	return s == Train || s == Eval
}
