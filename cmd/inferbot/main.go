package main

import (
	"os"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run(newRootCmd(), os.Args[1:]))
}

// run executes cmd and returns the process exit code. Errors are printed
// here since the root command silences cobra's own reporting.
func run(cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		ancli.PrintErr(err.Error() + "\n")
		return 1
	}
	return 0
}
