package meter

import (
	"sort"
	"strconv"
	"strings"
)

// Record is one dumped row: field name to mean value.
type Record map[string]float64

// Fields returns the record's field names in sorted order.
func (r Record) Fields() []string {
	fields := make([]string, 0, len(r))
	for name := range r {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

// Episode returns the record's episode value, if present.
func (r Record) Episode() (float64, bool) {
	v, ok := r[EpisodeField]
	return v, ok
}

const (
	// EpisodeField orders and truncates CSV logs.
	EpisodeField = "episode"
	// FrameField holds the step passed to Dump.
	FrameField = "frame"
)

var scopePrefixes = []string{"train", "eval"}

// FieldName maps a meter key to its record field: the leading scope and its
// separator are stripped, remaining "/" become "_".
//
//	FieldName("train/episode_reward") == "episode_reward"
//	FieldName("eval/actor/loss")      == "actor_loss"
func FieldName(key string) string {
	for _, prefix := range scopePrefixes {
		if strings.HasPrefix(key, prefix) {
			key = key[len(prefix):]
			if key != "" {
				key = key[1:]
			}
			break
		}
	}
	return strings.ReplaceAll(key, "/", "_")
}

// formatValue writes v with the fewest digits that round-trip.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
