package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newRootCmd builds the chibiwasm command tree. The run subcommand receives
// a logger constructor driven by the persistent --verbose flag rather than a
// global logger; inspect takes no logger.
func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "chibiwasm",
		Short:         "A small WebAssembly core 1.0 interpreter",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	newLogger := func() *zap.Logger {
		if verbose {
			l, _ := zap.NewDevelopment()
			return l
		}
		return zap.NewNop()
	}

	root.AddCommand(newRunCmd(newLogger))
	root.AddCommand(newInspectCmd())
	return root
}
