package message

import (
	"context"

	"github.com/DEVBOX10/himalaya/internal/backend"
	"github.com/DEVBOX10/himalaya/internal/config"
	"github.com/DEVBOX10/himalaya/internal/email"
	"github.com/DEVBOX10/himalaya/internal/printer"
)

type Resolver interface {
	Resolve(ctx context.Context, acct *config.AccountConfig, caps []backend.Capability, opts ...backend.ResolveOption) (*backend.Backend, error)
}

// Send composes the message, sends it and, when sentFolder is set, keeps a
// copy of it there flagged as seen.
func Send(ctx context.Context, p printer.Printer, r Resolver, acct *config.AccountConfig, in email.ComposeInput, sentFolder string) error {
	if in.From == "" {
		in.From = acct.Email
	}
	if in.FromName == "" {
		in.FromName = acct.DisplayName
	}
	raw, err := email.BuildMessage(in)
	if err != nil {
		return err
	}

	caps := []backend.Capability{backend.SendMessage}
	if sentFolder != "" {
		caps = append(caps, backend.AddMessage)
	}
	b, err := r.Resolve(ctx, acct, caps)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.SendMessage(ctx, raw); err != nil {
		return err
	}
	if sentFolder != "" {
		if _, err := b.AddMessage(ctx, sentFolder, email.StripBcc(raw), []string{"seen"}); err != nil {
			return err
		}
	}
	return p.Out("Message successfully sent!")
}
