package account

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/DEVBOX10/himalaya/internal/backend"
	"github.com/DEVBOX10/himalaya/internal/cache"
	"github.com/DEVBOX10/himalaya/internal/config"
	"github.com/DEVBOX10/himalaya/internal/email"
	"github.com/DEVBOX10/himalaya/internal/folder"
	"github.com/DEVBOX10/himalaya/internal/log"
	"github.com/DEVBOX10/himalaya/internal/printer"
)

type Resolver interface {
	Resolve(ctx context.Context, acct *config.AccountConfig, caps []backend.Capability, opts ...backend.ResolveOption) (*backend.Backend, error)
}

// SyncReport is what a synchronization did, or would do on a dry run.
type SyncReport struct {
	Account  string         `json:"account"`
	DryRun   bool           `json:"dry_run"`
	Folders  []string       `json:"folders"`
	Messages map[string]int `json:"messages"`
}

// Total is the number of messages copied into the cache.
func (r SyncReport) Total() int {
	total := 0
	for _, n := range r.Messages {
		total += n
	}
	return total
}

// Sync copies the messages of the folders selected by strategy that are not
// cached yet into the synchronization cache. Messages are peeked so their
// flags are left untouched. A folder whose validity changed since the last
// sync is cached again from scratch. A dry run only reports: the cache is
// read when it exists and never created or written.
func Sync(ctx context.Context, p printer.Printer, r Resolver, acct *config.AccountConfig, strategy folder.SyncStrategy, dryRun bool) (SyncReport, error) {
	report := SyncReport{Account: acct.Name, DryRun: dryRun, Folders: []string{}, Messages: map[string]int{}}
	l := log.Logger(log.LOG_CLI).WithFields(logrus.Fields{"account": acct.Name, "strategy": strategy.String()})

	b, err := r.Resolve(ctx, acct, []backend.Capability{
		backend.ListFolders,
		backend.ListEnvelopes,
		backend.PeekMessages,
	})
	if err != nil {
		return report, err
	}
	defer b.Close()

	store, err := openCache(acct, dryRun)
	if err != nil {
		return report, err
	}
	if store != nil {
		defer store.Close()
	}

	folders, err := b.ListFolders(ctx)
	if err != nil {
		return report, err
	}

	selected := email.Folders{}
	seen := map[string]bool{}
	for _, f := range folders {
		if seen[f.Name] || !strategy.Matches(f.Name) {
			continue
		}
		seen[f.Name] = true
		selected = append(selected, f)
		report.Folders = append(report.Folders, f.Name)
	}
	l.WithField("folders", len(selected)).Debug("selected folders")

	for _, name := range report.Folders {
		missing, err := missingIDs(ctx, b, store, name, dryRun)
		if err != nil {
			return report, err
		}
		report.Messages[name] = len(missing)
		if err := p.Log(fmt.Sprintf("Folder %s: %d message(s) to synchronize", name, len(missing))); err != nil {
			return report, err
		}
		if dryRun || len(missing) == 0 {
			continue
		}
		messages, err := b.PeekMessages(ctx, name, missing)
		if err != nil {
			return report, err
		}
		if err := store.SaveMessages(name, messages); err != nil {
			return report, err
		}
	}

	if dryRun {
		return report, p.Out(fmt.Sprintf("Account %s would synchronize %d message(s) from %d folder(s)!", acct.Name, report.Total(), len(report.Folders)))
	}
	if err := store.SaveFolders(selected); err != nil {
		return report, err
	}
	return report, p.Out(fmt.Sprintf("Account %s successfully synchronized!", acct.Name))
}

// openCache opens the sync cache for writing, or read-only on a dry run. A
// dry run without cache yet gets a nil store.
func openCache(acct *config.AccountConfig, dryRun bool) (*cache.Store, error) {
	if !dryRun {
		path, err := acct.SyncDatabasePath()
		if err != nil {
			return nil, err
		}
		return cache.Open(path)
	}
	path, err := acct.SyncDatabaseFile()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return cache.OpenReadOnly(path)
}

func missingIDs(ctx context.Context, b *backend.Backend, store *cache.Store, name string, dryRun bool) ([]string, error) {
	envelopes, err := b.ListEnvelopes(ctx, name, 1, 0)
	if err != nil {
		return nil, err
	}
	cached, err := cachedIDs(ctx, b, store, name, dryRun)
	if err != nil {
		return nil, err
	}
	missing := []string{}
	for _, id := range envelopes.IDs() {
		if !cached[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// cachedIDs is the set of ids of folder still valid in the cache. On a real
// run a changed folder validity drops the cached messages.
func cachedIDs(ctx context.Context, b *backend.Backend, store *cache.Store, name string, dryRun bool) (map[string]bool, error) {
	cached := map[string]bool{}
	if store == nil {
		return cached, nil
	}
	validity, ok, err := b.FolderValidity(ctx, backend.PeekMessages, name)
	if err != nil {
		return nil, err
	}
	if ok {
		if dryRun {
			known, found, err := store.Validity(name)
			if err != nil {
				return nil, err
			}
			if found && known != validity {
				return cached, nil
			}
		} else if _, err := store.CheckValidity(name, validity); err != nil {
			return nil, err
		}
	}
	ids, err := store.MessageIDs(name)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		cached[id] = true
	}
	return cached, nil
}
