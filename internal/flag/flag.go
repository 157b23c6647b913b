package flag

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/DEVBOX10/himalaya/internal/backend"
	"github.com/DEVBOX10/himalaya/internal/config"
	"github.com/DEVBOX10/himalaya/internal/log"
	"github.com/DEVBOX10/himalaya/internal/printer"
)

type Resolver interface {
	Resolve(ctx context.Context, acct *config.AccountConfig, caps []backend.Capability, opts ...backend.ResolveOption) (*backend.Backend, error)
}

// Normalize splits comma-separated flags and drops empty entries.
func Normalize(flags []string) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		for _, part := range strings.Split(f, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func Add(ctx context.Context, p printer.Printer, r Resolver, acct *config.AccountConfig, folder string, ids, flags []string) error {
	return change(ctx, p, r, acct, backend.AddFlags, folder, ids, flags, "added")
}

// Set replaces every flag of the messages with flags.
func Set(ctx context.Context, p printer.Printer, r Resolver, acct *config.AccountConfig, folder string, ids, flags []string) error {
	return change(ctx, p, r, acct, backend.SetFlags, folder, ids, flags, "set")
}

func Remove(ctx context.Context, p printer.Printer, r Resolver, acct *config.AccountConfig, folder string, ids, flags []string) error {
	return change(ctx, p, r, acct, backend.RemoveFlags, folder, ids, flags, "removed")
}

func change(ctx context.Context, p printer.Printer, r Resolver, acct *config.AccountConfig, c backend.Capability, folder string, ids, flags []string, verb string) error {
	if len(ids) == 0 {
		return fmt.Errorf("at least one message id is required")
	}
	flags = Normalize(flags)
	if len(flags) == 0 && c != backend.SetFlags {
		return fmt.Errorf("at least one flag is required")
	}
	folder = acct.Folder(folder)
	log.Logger(log.LOG_CLI).WithFields(logrus.Fields{"account": acct.Name, "folder": folder, "flags": flags}).
		Infof("executing %s command", c)

	b, err := r.Resolve(ctx, acct, []backend.Capability{c})
	if err != nil {
		return err
	}
	defer b.Close()

	switch c {
	case backend.AddFlags:
		err = b.AddFlags(ctx, folder, ids, flags)
	case backend.SetFlags:
		err = b.SetFlags(ctx, folder, ids, flags)
	default:
		err = b.RemoveFlags(ctx, folder, ids, flags)
	}
	if err != nil {
		return err
	}
	return p.Out(fmt.Sprintf("Flag(s) successfully %s!", verb))
}
