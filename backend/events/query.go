package events

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/match"
)

// Filter selects events from an event log. Zero fields match everything.
type Filter struct {
	Run  string
	Kind string
	// Key is a wildcard pattern ("train/*", "eval/episode_?eward").
	Key     string
	MinStep int
	// MaxStep is inclusive; negative means unbounded.
	MaxStep int
}

// Match reports whether the raw JSON event satisfies the filter.
func (f Filter) Match(line string) bool {
	ev := gjson.GetMany(line, "run", "kind", "key", "step")
	if f.Run != "" && ev[0].String() != f.Run {
		return false
	}
	if f.Kind != "" && ev[1].String() != f.Kind {
		return false
	}
	if f.Key != "" && !match.Match(ev[2].String(), f.Key) {
		return false
	}
	step := int(ev[3].Int())
	if step < f.MinStep {
		return false
	}
	if f.MaxStep >= 0 && step > f.MaxStep {
		return false
	}
	return true
}

// Scan calls fn for every event line of r that satisfies the filter. Blank
// lines are skipped and invalid JSON is an error.
func Scan(r io.Reader, f Filter, fn func(line string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !gjson.Valid(line) {
			return fmt.Errorf("line %d: invalid JSON event", n)
		}
		if !f.Match(line) {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read event log: %w", err)
	}
	return nil
}

// Extract returns the value at each path of a JSON event. Paths may be gjson
// paths ("histogram.p50") or simple JSONPath ("$.histogram.bins[0].count").
// Missing paths yield an empty string.
func Extract(line string, paths []string) []string {
	gpaths := make([]string, len(paths))
	for i, p := range paths {
		gpaths[i] = toGjsonPath(p)
	}
	results := gjson.GetMany(line, gpaths...)
	out := make([]string, len(results))
	for i, r := range results {
		switch {
		case !r.Exists():
			out[i] = ""
		case r.Type == gjson.Null:
			out[i] = "null"
		default:
			out[i] = r.String()
		}
	}
	return out
}

// toGjsonPath converts a JSONPath expression to gjson syntax:
// $.bins[0].count becomes bins.0.count.
func toGjsonPath(path string) string {
	if path == "$" {
		return "@this"
	}
	if !strings.HasPrefix(path, "$") {
		return path
	}
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return "@this"
	}

	path = strings.NewReplacer("['", ".", "']", "", "[\"", ".", "\"]", "").Replace(path)
	path = strings.NewReplacer("[", ".", "]", "").Replace(path)
	return strings.TrimPrefix(path, ".")
}
