package main

import (
	"os"

	"github.com/sarchlab/spikeputor/config"
	"github.com/spf13/cobra"
)

var envFiles []string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "spikesim",
	Short: "spikesim simulates the Spikeputor bus fabric.",
	Long: `spikesim simulates the Spikeputor bus fabric cycle by cycle. ` +
		`The board is configured with SPIKESIM_* environment variables, ` +
		`which can also be given in .env files.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", nil,
		".env files to read before the environment")
}

func loadSettings() (config.Settings, error) {
	return config.Load(envFiles...)
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
