package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/meterlog/internal/output"
	"github.com/wesleyorama2/meterlog/meter"
)

var showCmd = &cobra.Command{
	Use:   "show [train|eval]",
	Short: "Print a CSV metrics log",
	Long: `Show reads train.csv or eval.csv from a log directory and prints every row,
either as dump console lines or as JSON/YAML records.

  meterlog show eval --log-dir runs/exp1 --tail 5
  meterlog show train --log-dir runs/exp1 --format json`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"train", "eval"},
	RunE:      runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	scope := "train"
	if len(args) == 1 {
		scope = args[0]
	}
	if scope != "train" && scope != "eval" {
		return fmt.Errorf("unknown scope %q (want train or eval)", scope)
	}

	dir, _ := cmd.Flags().GetString("log-dir")
	tail, _ := cmd.Flags().GetInt("tail")
	formatName, _ := cmd.Flags().GetString("format")
	noColor, _ := cmd.Flags().GetBool("no-color")

	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, scope+".csv")
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()

	_, records, err := meter.ReadRecords(f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if tail > 0 && len(records) > tail {
		records = records[len(records)-tail:]
	}

	rows := make([]map[string]float64, len(records))
	for i, r := range records {
		rows[i] = r
	}
	return output.GetFormatter(format, noColor).FormatRecords(cmd.OutOrStdout(), scope, rows)
}

func init() {
	showCmd.Flags().String("log-dir", "./logs", "Log directory")
	showCmd.Flags().IntP("tail", "n", 0, "Only print the last N rows")
	showCmd.Flags().StringP("format", "f", "text", "Output format: text, json, yaml")
	showCmd.Flags().Bool("no-color", false, "Disable colored scope labels")
}
