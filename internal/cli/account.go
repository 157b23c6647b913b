package cli

import (
	"github.com/spf13/cobra"

	"github.com/DEVBOX10/himalaya/internal/account"
	"github.com/DEVBOX10/himalaya/internal/folder"
)

func newAccountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "account",
		Aliases: []string{"accounts"},
		Short:   "Manage accounts",
	}
	cmd.AddCommand(newAccountListCmd(a))
	cmd.AddCommand(newAccountSyncCmd(a))
	cmd.AddCommand(newAccountConfigureCmd(a))
	return cmd
}

func newAccountListCmd(a *app) *cobra.Command {
	var maxWidth int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all configured accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return account.List(p, a.cfg, maxWidth)
		},
	}

	cmd.Flags().IntVarP(&maxWidth, "max-width", "w", 0, "Maximum table width")

	return cmd
}

func newAccountSyncCmd(a *app) *cobra.Command {
	var (
		args   folder.SyncArgs
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "sync [folder]",
		Short: "Synchronize the account folders into the local cache",
		Long: "Synchronize the account folders into the local cache.\n\n" +
			"When several folder selections are given, the most specific one wins: " +
			"the folder argument, then --include, then --exclude, then --all. " +
			"Without any selection the account sync strategy applies.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			acct, err := a.account()
			if err != nil {
				return err
			}
			p, err := a.printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			args.Source = firstArg(positional)
			_, err = account.Sync(cmd.Context(), p, a.resolver, acct, folder.SyncStrategyFor(args, acct), dryRun)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&args.Include, "include", "f", nil, "Synchronize only these folders (repeatable)")
	flags.StringSliceVarP(&args.Exclude, "exclude", "x", nil, "Synchronize all folders except these (repeatable)")
	flags.BoolVarP(&args.All, "all", "A", false, "Synchronize all folders")
	flags.BoolVarP(&dryRun, "dry-run", "d", false, "Report what would be synchronized without writing anything")

	return cmd
}

func newAccountConfigureCmd(a *app) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Store the account passwords in the keyring",
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
			return account.Configure(p, a.secrets, acct, a.secret, reset)
		},
	}

	cmd.Flags().BoolVarP(&reset, "reset", "r", false, "Forget stored passwords and ask again")

	return cmd
}
