package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const appID = "com.focusflow.app"

// version is replaced at link time.
var version = "0.1.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configDir string
}

func newRootCommand() *cobra.Command {
	options := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "focusflow",
		Short:         "FocusFlow task board with a focus timer overlay",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd.Context(), options.configDir)
		},
	}
	rootCmd.PersistentFlags().StringVar(&options.configDir, "config-dir", "", "directory holding state, history, settings and log")

	rootCmd.AddCommand(pathsCmd(options))
	rootCmd.AddCommand(exportCmd(options))
	rootCmd.AddCommand(historyCmd(options))
	rootCmd.AddCommand(timerCmd())
	return rootCmd
}
