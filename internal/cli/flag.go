package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/DEVBOX10/himalaya/internal/config"
	"github.com/DEVBOX10/himalaya/internal/flag"
	"github.com/DEVBOX10/himalaya/internal/printer"
)

type flagChange func(ctx context.Context, p printer.Printer, r flag.Resolver, acct *config.AccountConfig, folder string, ids, flags []string) error

func newFlagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "flag",
		Aliases: []string{"flags"},
		Short:   "Manage message flags",
		Long: "Manage message flags.\n\n" +
			"Flags are given as a comma-separated list. seen, answered, flagged, deleted " +
			"and draft map to the IMAP system flags, other names are kept as keywords.",
	}
	cmd.AddCommand(newFlagChangeCmd(a, "add", "Add flags to messages", flag.Add))
	cmd.AddCommand(newFlagChangeCmd(a, "set", "Replace the flags of messages", flag.Set))
	cmd.AddCommand(newFlagChangeCmd(a, "remove", "Remove flags from messages", flag.Remove))
	return cmd
}

func newFlagChangeCmd(a *app, name, short string, run flagChange) *cobra.Command {
	var folderName string

	cmd := &cobra.Command{
		Use:   name + " <flags> <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.account()
			if err != nil {
				return err
			}
			p, err := a.printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return run(cmd.Context(), p, a.resolver, acct, folderName, args[1:], []string{args[0]})
		},
	}

	cmd.Flags().StringVarP(&folderName, "folder", "f", "", "Folder of the messages, the account default folder when empty")

	return cmd
}
