// Package cli builds the relayd command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// Options collects the persistent flags.
type Options struct {
	LogLevel  string
	LogFormat string
}

// BuildRootCmd constructs the Cobra command tree.
func BuildRootCmd() *cobra.Command {
	opts := &Options{}
	root := &cobra.Command{
		Use:           "relayd",
		Short:         "Event-forwarding broker: TCP ingress, registration control plane, fan-out to subscribers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Log level: debug|info|warn|error (defaults RELAYD_LOG_LEVEL or info)")
	root.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "Log format: console|json (defaults RELAYD_LOG_FORMAT or console)")

	root.AddCommand(newServeCmd(opts), newConsumeCmd(opts), newCtlCmd())

	// completion command
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(os.Stdout, true) }})
	root.AddCommand(completionCmd)
	root.CompletionOptions.DisableDefaultCmd = true
	return root
}

// Execute runs the command tree with os.Args.
func Execute() error {
	return BuildRootCmd().Execute()
}
