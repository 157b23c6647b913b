package envelope

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/DEVBOX10/himalaya/internal/backend"
	"github.com/DEVBOX10/himalaya/internal/config"
	"github.com/DEVBOX10/himalaya/internal/email"
	"github.com/DEVBOX10/himalaya/internal/log"
	"github.com/DEVBOX10/himalaya/internal/printer"
)

const DefaultPageSize = 20

type Resolver interface {
	Resolve(ctx context.Context, acct *config.AccountConfig, caps []backend.Capability, opts ...backend.ResolveOption) (*backend.Backend, error)
}

// Page selects a slice of a folder, newest first. Page numbers start at 1.
type Page struct {
	Number   int
	Size     int
	MaxWidth int
}

func (pg Page) normalize(acct *config.AccountConfig) Page {
	if pg.Number <= 0 {
		pg.Number = 1
	}
	if pg.Size < 0 {
		pg.Size = DefaultPageSize
	}
	if pg.MaxWidth <= 0 {
		pg.MaxWidth = acct.Table.MaxWidth
	}
	return pg
}

// List prints one page of the folder envelopes.
func List(ctx context.Context, p printer.Printer, r Resolver, acct *config.AccountConfig, folder string, pg Page) error {
	folder = acct.Folder(folder)
	pg = pg.normalize(acct)
	log.Logger(log.LOG_CLI).WithFields(logrus.Fields{"account": acct.Name, "folder": folder, "page": pg.Number}).
		Info("executing list envelopes command")

	b, err := r.Resolve(ctx, acct, []backend.Capability{backend.ListEnvelopes})
	if err != nil {
		return err
	}
	defer b.Close()

	envelopes, err := b.ListEnvelopes(ctx, folder, pg.Number, pg.Size)
	if err != nil {
		return err
	}
	return printEnvelopes(p, envelopes, pg)
}

// Search prints one page of the folder envelopes matching query.
func Search(ctx context.Context, p printer.Printer, r Resolver, acct *config.AccountConfig, folder, query string, pg Page) error {
	folder = acct.Folder(folder)
	pg = pg.normalize(acct)
	log.Logger(log.LOG_CLI).WithFields(logrus.Fields{"account": acct.Name, "folder": folder, "query": query}).
		Info("executing search envelopes command")

	b, err := r.Resolve(ctx, acct, []backend.Capability{backend.SearchEnvelopes})
	if err != nil {
		return err
	}
	defer b.Close()

	envelopes, err := b.SearchEnvelopes(ctx, folder, query, pg.Number, pg.Size)
	if err != nil {
		return err
	}
	return printEnvelopes(p, envelopes, pg)
}

// Get prints the envelope of a single message.
func Get(ctx context.Context, p printer.Printer, r Resolver, acct *config.AccountConfig, folder, id string, maxWidth int) error {
	folder = acct.Folder(folder)

	b, err := r.Resolve(ctx, acct, []backend.Capability{backend.GetEnvelope})
	if err != nil {
		return err
	}
	defer b.Close()

	env, err := b.GetEnvelope(ctx, folder, id)
	if err != nil {
		return err
	}
	if maxWidth <= 0 {
		maxWidth = acct.Table.MaxWidth
	}
	return p.PrintTable(email.Envelopes{env}, printer.TableOpts{MaxWidth: maxWidth})
}

func printEnvelopes(p printer.Printer, envelopes email.Envelopes, pg Page) error {
	if len(envelopes) == 0 && !p.IsJSON() {
		return p.Out("No messages found.")
	}
	return p.PrintTable(envelopes, printer.TableOpts{MaxWidth: pg.MaxWidth})
}
