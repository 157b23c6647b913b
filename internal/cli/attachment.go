package cli

import (
	"github.com/spf13/cobra"

	"github.com/DEVBOX10/himalaya/internal/attachment"
)

func newAttachmentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "attachment",
		Aliases: []string{"attachments"},
		Short:   "Manage attachments",
	}
	cmd.AddCommand(newAttachmentDownloadCmd(a))
	return cmd
}

func newAttachmentDownloadCmd(a *app) *cobra.Command {
	var folderName string

	cmd := &cobra.Command{
		Use:   "download <id>...",
		Short: "Download the attachments of the given messages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.account()
			if err != nil {
				return err
			}
			p, err := a.printer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return attachment.Download(cmd.Context(), p, a.resolver, acct, acct.Folder(folderName), args)
		},
	}

	cmd.Flags().StringVarP(&folderName, "folder", "f", "", "Folder of the messages, the account default folder when empty")

	return cmd
}
