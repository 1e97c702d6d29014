package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	version = "dev" // set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "diameter-load",
	Short: "Diameter protocol load generator",
	Long: `diameter-load drives a configurable volume of Diameter traffic against a
peer: a one-shot Init exchange per worker followed by a rate-paced,
templated Repeating scenario chain, reporting aggregate throughput.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "campaign config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
}

// Commands are defined in separate files:
// - runCmd in run.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
