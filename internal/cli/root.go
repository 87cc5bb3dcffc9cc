package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/meterlog/internal/output"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "meterlog",
	Short:   "Running-average metrics logging for training loops",
	Version: version,
	Long: `Meterlog accumulates training statistics into running averages, dumps them
to train.csv and eval.csv with a one-line console summary, and mirrors scalars,
histograms and images to event log, plot and Prometheus textfile backends.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print help
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	err := RootCmd.Execute()
	if err != nil {
		output.DefaultColorScheme().Warning.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func init() {
	RootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file (YAML)")
	RootCmd.PersistentFlags().String("log-level", "", "Diagnostics level: debug, info, warn, error")
	RootCmd.PersistentFlags().String("log-format", "", "Diagnostics format: console or json")

	// Add subcommands to root command
	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(showCmd)
	RootCmd.AddCommand(eventsCmd)
	RootCmd.AddCommand(versionCmd)
}
