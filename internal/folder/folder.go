package folder

import (
	"context"
	"fmt"

	"github.com/DEVBOX10/himalaya/internal/backend"
	"github.com/DEVBOX10/himalaya/internal/config"
	"github.com/DEVBOX10/himalaya/internal/printer"
	"github.com/DEVBOX10/himalaya/internal/prompt"
)

// Resolver builds the backend of a command.
type Resolver interface {
	Resolve(ctx context.Context, acct *config.AccountConfig, caps []backend.Capability, opts ...backend.ResolveOption) (*backend.Backend, error)
}

func withBackend(ctx context.Context, r Resolver, acct *config.AccountConfig, caps []backend.Capability, fn func(*backend.Backend) error) error {
	b, err := r.Resolve(ctx, acct, caps)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(b)
}

func List(ctx context.Context, p printer.Printer, r Resolver, acct *config.AccountConfig, maxWidth int) error {
	return withBackend(ctx, r, acct, []backend.Capability{backend.ListFolders}, func(b *backend.Backend) error {
		folders, err := b.ListFolders(ctx)
		if err != nil {
			return err
		}
		if maxWidth <= 0 {
			maxWidth = acct.Table.MaxWidth
		}
		return p.PrintTable(folders, printer.TableOpts{MaxWidth: maxWidth})
	})
}

func Create(ctx context.Context, p printer.Printer, r Resolver, acct *config.AccountConfig, name string) error {
	return withBackend(ctx, r, acct, []backend.Capability{backend.AddFolder}, func(b *backend.Backend) error {
		if err := b.AddFolder(ctx, name); err != nil {
			return err
		}
		return p.Out("Folder successfully created!")
	})
}

// Delete asks for confirmation first. Declining is not an error and leaves
// the backend untouched.
func Delete(ctx context.Context, p printer.Printer, r Resolver, acct *config.AccountConfig, name string, confirm prompt.Confirmer) error {
	ok, err := confirm.Confirm(fmt.Sprintf("Confirm deletion of folder %s?", name))
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return withBackend(ctx, r, acct, []backend.Capability{backend.DeleteFolder}, func(b *backend.Backend) error {
		if err := b.DeleteFolder(ctx, name); err != nil {
			return err
		}
		return p.Out("Folder successfully deleted!")
	})
}

func Expunge(ctx context.Context, p printer.Printer, r Resolver, acct *config.AccountConfig, name string) error {
	return withBackend(ctx, r, acct, []backend.Capability{backend.ExpungeFolder}, func(b *backend.Backend) error {
		if err := b.ExpungeFolder(ctx, name); err != nil {
			return err
		}
		return p.Out(fmt.Sprintf("Folder %s successfully expunged!", name))
	})
}

// Purge removes every message of the folder after confirmation.
func Purge(ctx context.Context, p printer.Printer, r Resolver, acct *config.AccountConfig, name string, confirm prompt.Confirmer) error {
	ok, err := confirm.Confirm(fmt.Sprintf("Confirm purge of folder %s? All its messages will be deleted.", name))
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return withBackend(ctx, r, acct, []backend.Capability{backend.PurgeFolder}, func(b *backend.Backend) error {
		if err := b.PurgeFolder(ctx, name); err != nil {
			return err
		}
		return p.Out(fmt.Sprintf("Folder %s successfully purged!", name))
	})
}
