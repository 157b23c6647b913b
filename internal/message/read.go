package message

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/DEVBOX10/himalaya/internal/backend"
	"github.com/DEVBOX10/himalaya/internal/config"
	"github.com/DEVBOX10/himalaya/internal/email"
	"github.com/DEVBOX10/himalaya/internal/log"
	"github.com/DEVBOX10/himalaya/internal/printer"
)

// Read prints the given messages one after the other. Reading marks them
// as seen unless preview is set.
func Read(ctx context.Context, p printer.Printer, r Resolver, acct *config.AccountConfig, folder string, ids []string, preview bool) error {
	if len(ids) == 0 {
		return fmt.Errorf("at least one message id is required")
	}
	folder = acct.Folder(folder)
	log.Logger(log.LOG_CLI).WithFields(logrus.Fields{"account": acct.Name, "folder": folder, "preview": preview}).
		Info("executing read message(s) command")

	c := backend.GetMessages
	if preview {
		c = backend.PeekMessages
	}
	b, err := r.Resolve(ctx, acct, []backend.Capability{c})
	if err != nil {
		return err
	}
	defer b.Close()

	var messages []email.Message
	if preview {
		messages, err = b.PeekMessages(ctx, folder, ids)
	} else {
		messages, err = b.GetMessages(ctx, folder, ids)
	}
	if err != nil {
		return err
	}

	readings := make([]email.Reading, 0, len(messages))
	for _, msg := range messages {
		reading, err := msg.Read()
		if err != nil {
			return err
		}
		readings = append(readings, reading)
	}

	if p.IsJSON() {
		return p.Out(readings)
	}
	parts := make([]string, 0, len(readings))
	for _, reading := range readings {
		parts = append(parts, reading.String())
	}
	return p.Out(strings.Join(parts, "\n\n"+strings.Repeat("─", 40)+"\n\n"))
}

func Copy(ctx context.Context, p printer.Printer, r Resolver, acct *config.AccountConfig, from, to string, ids []string) error {
	from = acct.Folder(from)
	b, err := r.Resolve(ctx, acct, []backend.Capability{backend.CopyMessages})
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.CopyMessages(ctx, from, to, ids); err != nil {
		return err
	}
	return p.Out(fmt.Sprintf("Message(s) successfully copied from %s to %s!", from, to))
}

func Move(ctx context.Context, p printer.Printer, r Resolver, acct *config.AccountConfig, from, to string, ids []string) error {
	from = acct.Folder(from)
	b, err := r.Resolve(ctx, acct, []backend.Capability{backend.MoveMessages})
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.MoveMessages(ctx, from, to, ids); err != nil {
		return err
	}
	return p.Out(fmt.Sprintf("Message(s) successfully moved from %s to %s!", from, to))
}

// Delete removes the messages for good: they are flagged as deleted and
// expunged by the backend.
func Delete(ctx context.Context, p printer.Printer, r Resolver, acct *config.AccountConfig, folder string, ids []string) error {
	folder = acct.Folder(folder)
	b, err := r.Resolve(ctx, acct, []backend.Capability{backend.DeleteMessages})
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.DeleteMessages(ctx, folder, ids); err != nil {
		return err
	}
	return p.Out("Message(s) successfully deleted!")
}
