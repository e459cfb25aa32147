package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sorinm/empirical-lang/cmd"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "empirical [subcommand]",
	Short:        "empirical\n a statically-typed language for tabular data",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.RunCmd)
	rootCmd.AddCommand(cmd.ReplCmd)
}
