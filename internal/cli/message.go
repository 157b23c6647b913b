package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DEVBOX10/himalaya/internal/config"
	"github.com/DEVBOX10/himalaya/internal/email"
	"github.com/DEVBOX10/himalaya/internal/message"
	"github.com/DEVBOX10/himalaya/internal/printer"
)

func newMessageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "message",
		Aliases: []string{"messages", "msg"},
		Short:   "Manage messages",
	}
	cmd.AddCommand(newMessageReadCmd(a))
	cmd.AddCommand(newMessageSendCmd(a))
	cmd.AddCommand(newMessageTransferCmd(a, "copy", "Copy messages to another folder", message.Copy))
	cmd.AddCommand(newMessageTransferCmd(a, "move", "Move messages to another folder", message.Move))
	cmd.AddCommand(newMessageDeleteCmd(a))
	return cmd
}

func newMessageReadCmd(a *app) *cobra.Command {
	var (
		folderName string
		preview    bool
	)

	cmd := &cobra.Command{
		Use:   "read <id>...",
		Short: "Read messages",
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
			return message.Read(cmd.Context(), p, a.resolver, acct, folderName, args, preview)
		},
	}

	cmd.Flags().StringVarP(&folderName, "folder", "f", "", "Folder of the messages, the account default folder when empty")
	cmd.Flags().BoolVarP(&preview, "preview", "p", false, "Read without marking the messages as seen")

	return cmd
}

type messageTransfer func(ctx context.Context, p printer.Printer, r message.Resolver, acct *config.AccountConfig, from, to string, ids []string) error

func newMessageTransferCmd(a *app, name, short string, run messageTransfer) *cobra.Command {
	var folderName string

	cmd := &cobra.Command{
		Use:   name + " <target> <id>...",
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
			return run(cmd.Context(), p, a.resolver, acct, folderName, args[0], args[1:])
		},
	}

	cmd.Flags().StringVarP(&folderName, "folder", "f", "", "Source folder, the account default folder when empty")

	return cmd
}

func newMessageDeleteCmd(a *app) *cobra.Command {
	var folderName string

	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete messages",
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
			return message.Delete(cmd.Context(), p, a.resolver, acct, folderName, args)
		},
	}

	cmd.Flags().StringVarP(&folderName, "folder", "f", "", "Folder of the messages, the account default folder when empty")

	return cmd
}

func newMessageSendCmd(a *app) *cobra.Command {
	var (
		to          string
		cc          string
		bcc         string
		subject     string
		body        string
		bodyFile    string
		attachments []string
		sentFolder  string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Compose and send a message",
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

			content, err := loadBody(body, bodyFile)
			if err != nil {
				return err
			}

			return message.Send(cmd.Context(), p, a.resolver, acct, email.ComposeInput{
				To:          splitList(to),
				Cc:          splitList(cc),
				Bcc:         splitList(bcc),
				Subject:     subject,
				Body:        content,
				Attachments: attachments,
			}, sentFolder)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Comma-separated recipients")
	cmd.Flags().StringVar(&cc, "cc", "", "Comma-separated CC recipients")
	cmd.Flags().StringVar(&bcc, "bcc", "", "Comma-separated BCC recipients")
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Message subject")
	cmd.Flags().StringVarP(&body, "body", "b", "", "Message body")
	cmd.Flags().StringVar(&bodyFile, "body-file", "", "Path to file containing message body")
	cmd.Flags().StringSliceVar(&attachments, "attachment", nil, "Attachment file paths (repeatable)")
	cmd.Flags().StringVar(&sentFolder, "save-to", "", "Keep a copy of the sent message in this folder")

	return cmd
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func loadBody(body, bodyFile string) (string, error) {
	if bodyFile == "" {
		return body, nil
	}
	if body != "" {
		return "", fmt.Errorf("use either --body or --body-file")
	}
	data, err := os.ReadFile(bodyFile)
	if err != nil {
		return "", fmt.Errorf("cannot read body file: %w", err)
	}
	return string(data), nil
}
