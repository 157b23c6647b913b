package cli

import (
	"github.com/spf13/cobra"

	"github.com/DEVBOX10/himalaya/internal/folder"
)

func newFolderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "folder",
		Aliases: []string{"folders", "mailbox", "mailboxes"},
		Short:   "Manage folders",
	}
	cmd.AddCommand(newFolderListCmd(a))
	cmd.AddCommand(newFolderCreateCmd(a))
	cmd.AddCommand(newFolderDeleteCmd(a))
	cmd.AddCommand(newFolderExpungeCmd(a))
	cmd.AddCommand(newFolderPurgeCmd(a))
	return cmd
}

func newFolderListCmd(a *app) *cobra.Command {
	var maxWidth int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.account()
			if err != nil {
				return err
			}
			p, err := a.printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return folder.List(cmd.Context(), p, a.resolver, acct, maxWidth)
		},
	}

	cmd.Flags().IntVarP(&maxWidth, "max-width", "w", 0, "Maximum table width, the account setting when zero")

	return cmd
}

func newFolderCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "create <name>",
		Aliases: []string{"add", "new"},
		Short:   "Create a new folder",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.account()
			if err != nil {
				return err
			}
			p, err := a.printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return folder.Create(cmd.Context(), p, a.resolver, acct, args[0])
		},
	}
}

func newFolderDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"remove", "rm"},
		Short:   "Delete a folder and all its messages",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.account()
			if err != nil {
				return err
			}
			p, err := a.printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return folder.Delete(cmd.Context(), p, a.resolver, acct, args[0], a.confirmer(yes))
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking for confirmation")

	return cmd
}

func newFolderExpungeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "expunge [name]",
		Short: "Remove messages flagged as deleted from a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.account()
			if err != nil {
				return err
			}
			p, err := a.printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return folder.Expunge(cmd.Context(), p, a.resolver, acct, acct.Folder(firstArg(args)))
		},
	}
}

func newFolderPurgeCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge [name]",
		Short: "Remove every message of a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.account()
			if err != nil {
				return err
			}
			p, err := a.printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return folder.Purge(cmd.Context(), p, a.resolver, acct, acct.Folder(firstArg(args)), a.confirmer(yes))
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Purge without asking for confirmation")

	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
