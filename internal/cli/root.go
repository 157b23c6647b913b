package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DEVBOX10/himalaya/internal/config"
)

func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:          config.AppName,
		Short:        "himalaya is a CLI to manage emails",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to the configuration file")
	flags.StringVarP(&a.accountName, "account", "a", "", "Account name, the default account when empty")
	flags.StringVarP(&a.output, "output", "o", "plain", "Output format (plain or json)")
	flags.StringVar(&a.logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")

	cmd.AddCommand(newAccountCmd(a))
	cmd.AddCommand(newFolderCmd(a))
	cmd.AddCommand(newAttachmentCmd(a))
	cmd.AddCommand(newEnvelopeCmd(a))
	cmd.AddCommand(newMessageCmd(a))
	cmd.AddCommand(newFlagCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	cmd.SetErr(os.Stderr)
	cmd.SetOut(os.Stdout)

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
