package cli

import (
	"github.com/spf13/cobra"

	"github.com/DEVBOX10/himalaya/internal/envelope"
)

func newEnvelopeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "envelope",
		Aliases: []string{"envelopes"},
		Short:   "List and search message envelopes",
	}
	cmd.AddCommand(newEnvelopeListCmd(a))
	cmd.AddCommand(newEnvelopeSearchCmd(a))
	cmd.AddCommand(newEnvelopeGetCmd(a))
	return cmd
}

func pageFlags(cmd *cobra.Command, folderName *string, pg *envelope.Page) {
	flags := cmd.Flags()
	flags.StringVarP(folderName, "folder", "f", "", "Folder to list, the account default folder when empty")
	flags.IntVarP(&pg.Number, "page", "p", 1, "Page number")
	flags.IntVarP(&pg.Size, "page-size", "s", envelope.DefaultPageSize, "Envelopes per page, 0 for all")
	flags.IntVarP(&pg.MaxWidth, "max-width", "w", 0, "Maximum table width")
}

func newEnvelopeListCmd(a *app) *cobra.Command {
	var (
		folderName string
		pg         envelope.Page
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List envelopes of a folder, newest first",
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
			return envelope.List(cmd.Context(), p, a.resolver, acct, folderName, pg)
		},
	}
	pageFlags(cmd, &folderName, &pg)

	return cmd
}

func newEnvelopeSearchCmd(a *app) *cobra.Command {
	var (
		folderName string
		pg         envelope.Page
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search envelopes of a folder by text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.account()
			if err != nil {
				return err
			}
			p, err := a.printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return envelope.Search(cmd.Context(), p, a.resolver, acct, folderName, args[0], pg)
		},
	}
	pageFlags(cmd, &folderName, &pg)

	return cmd
}

func newEnvelopeGetCmd(a *app) *cobra.Command {
	var (
		folderName string
		maxWidth   int
	)

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show the envelope of a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.account()
			if err != nil {
				return err
			}
			p, err := a.printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return envelope.Get(cmd.Context(), p, a.resolver, acct, folderName, args[0], maxWidth)
		},
	}

	cmd.Flags().StringVarP(&folderName, "folder", "f", "", "Folder of the message, the account default folder when empty")
	cmd.Flags().IntVarP(&maxWidth, "max-width", "w", 0, "Maximum table width")

	return cmd
}
