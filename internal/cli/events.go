package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/meterlog/backend/events"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Query the event log of a run directory",
	Long: `Events filters <log-dir>/tb/events.jsonl by run, kind, key pattern and step
range. Matching events are printed as JSON lines, or as tab separated columns
when --fields is given (gjson paths or $.json.path expressions).

  meterlog events --log-dir runs/exp1 --kind scalar --key 'eval/*'
  meterlog events --log-dir runs/exp1 --kind histogram --fields step,histogram.p50,histogram.p99`,
	Args: cobra.NoArgs,
	RunE: runEvents,
}

func runEvents(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("log-dir")
	run, _ := cmd.Flags().GetString("run")
	kind, _ := cmd.Flags().GetString("kind")
	key, _ := cmd.Flags().GetString("key")
	minStep, _ := cmd.Flags().GetInt("min-step")
	maxStep, _ := cmd.Flags().GetInt("max-step")
	fields, _ := cmd.Flags().GetStringSlice("fields")

	path := filepath.Join(dir, events.SubDir, events.FileName)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	if len(fields) > 0 {
		fmt.Fprintln(out, strings.Join(fields, "\t"))
	}
	filter := events.Filter{Run: run, Kind: kind, Key: key, MinStep: minStep, MaxStep: maxStep}
	return events.Scan(f, filter, func(line string) error {
		if len(fields) == 0 {
			_, err := fmt.Fprintln(out, line)
			return err
		}
		_, err := fmt.Fprintln(out, strings.Join(events.Extract(line, fields), "\t"))
		return err
	})
}

func init() {
	eventsCmd.Flags().String("log-dir", "./logs", "Log directory")
	eventsCmd.Flags().String("run", "", "Only events of this run id")
	eventsCmd.Flags().String("kind", "", "Only events of this kind: run, scalar, histogram, image")
	eventsCmd.Flags().String("key", "", "Key pattern, * and ? wildcards")
	eventsCmd.Flags().Int("min-step", 0, "Lowest step")
	eventsCmd.Flags().Int("max-step", -1, "Highest step, -1 for no limit")
	eventsCmd.Flags().StringSlice("fields", nil, "Comma separated fields to print")
}
