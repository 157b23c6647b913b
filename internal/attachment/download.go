package attachment

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/DEVBOX10/himalaya/internal/backend"
	"github.com/DEVBOX10/himalaya/internal/config"
	"github.com/DEVBOX10/himalaya/internal/log"
	"github.com/DEVBOX10/himalaya/internal/printer"
)

type Resolver interface {
	Resolve(ctx context.Context, acct *config.AccountConfig, caps []backend.Capability, opts ...backend.ResolveOption) (*backend.Backend, error)
}

// Download saves every attachment of the given messages under the account
// downloads dir. Messages are fetched through the synchronization cache in
// one batch. A message that cannot be parsed or an attachment that cannot
// be written aborts the command.
func Download(ctx context.Context, p printer.Printer, r Resolver, acct *config.AccountConfig, folder string, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("at least one message id is required")
	}
	folder = acct.Folder(folder)
	l := log.Logger(log.LOG_CLI).WithFields(logrus.Fields{"account": acct.Name, "folder": folder})
	l.Info("executing download attachment(s) command")

	b, err := r.Resolve(ctx, acct,
		[]backend.Capability{backend.GetMessages},
		backend.WithSource(backend.GetMessages, backend.SourceContext),
	)
	if err != nil {
		return err
	}
	defer b.Close()

	messages, err := b.GetMessages(ctx, folder, ids)
	if err != nil {
		return err
	}

	messagesCount := 0
	attachmentsCount := 0

	for _, msg := range messages {
		attachments, err := msg.Attachments()
		if err != nil {
			return err
		}

		if len(attachments) == 0 {
			if err := p.Log(fmt.Sprintf("No attachment found for message %s!", msg.ID)); err != nil {
				return err
			}
			continue
		}
		messagesCount++

		if err := p.Log(fmt.Sprintf("%d attachment(s) found for message %s!", len(attachments), msg.ID)); err != nil {
			return err
		}

		for _, att := range attachments {
			filename := att.Filename
			if filename == "" {
				filename = uuid.NewString()
			}
			path, err := acct.DownloadFilePath(filename)
			if err != nil {
				return err
			}
			if err := p.Log(fmt.Sprintf("Downloading %q…", path)); err != nil {
				return err
			}
			if err := os.WriteFile(path, att.Body, 0o644); err != nil {
				return fmt.Errorf("cannot save attachment at %q: %w", path, err)
			}
			l.WithFields(logrus.Fields{"id": msg.ID, "mime": att.MIMEType}).
				Debugf("saved %s to %s", humanize.Bytes(uint64(len(att.Body))), path)
			attachmentsCount++
		}
	}

	switch attachmentsCount {
	case 0:
		return p.Out("No attachment found!")
	case 1:
		return p.Out("Downloaded 1 attachment!")
	default:
		return p.Out(fmt.Sprintf("Downloaded %d attachment(s) from %d messages(s)!", attachmentsCount, messagesCount))
	}
}
