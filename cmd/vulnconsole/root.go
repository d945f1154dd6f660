package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vulnconsole/vulnconsole/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "vulnconsole",
	Short:         "Vulnconsole browses image vulnerabilities and manages backup integrations.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		structured := commandUsesStructuredLogging(cmd)
		setCommandExecutionContext(commandExecutionContext{
			CommandPath:       cmd.CommandPath(),
			UsesStructuredLog: structured,
		})
		opts := logging.BootstrapOptions{Command: cmd.CommandPath()}
		if !structured {
			opts.Writer = cmd.ErrOrStderr()
		}
		_, err := logging.BootstrapFromEnv(opts)
		return err
	},
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, vulnsCmd, backupsCmd)
}
