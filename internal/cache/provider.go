package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/DEVBOX10/himalaya/internal/backend"
	"github.com/DEVBOX10/himalaya/internal/config"
	"github.com/DEVBOX10/himalaya/internal/email"
)

const Kind = "context"

// Provider serves messages from the synchronization cache and falls back to
// the live upstream provider for what is not cached yet. Fetched messages
// are written back to the cache. The database is opened on first use. When
// the upstream reports folder validity, cached messages of a folder whose
// validity changed are dropped before serving.
type Provider struct {
	upstream backend.Provider
	path     func() (string, error)

	mu    sync.Mutex
	store *Store
}

func NewProvider(upstream backend.Provider, path func() (string, error)) *Provider {
	return &Provider{upstream: upstream, path: path}
}

// ContextFactory builds cache providers backed by the account sync database.
func ContextFactory(acct *config.AccountConfig, upstream backend.Provider) (backend.Provider, error) {
	return NewProvider(upstream, acct.SyncDatabasePath), nil
}

func (p *Provider) Name() string {
	return Kind
}

func (p *Provider) Supports(c backend.Capability) bool {
	switch c {
	case backend.GetMessages, backend.PeekMessages, backend.ListFolders:
		return backend.Implements(p.upstream, c)
	default:
		return false
	}
}

func (p *Provider) open() (*Store, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.store != nil {
		return p.store, nil
	}
	path, err := p.path()
	if err != nil {
		return nil, err
	}
	store, err := Open(path)
	if err != nil {
		return nil, err
	}
	p.store = store
	return store, nil
}

func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.store == nil {
		return nil
	}
	err := p.store.Close()
	p.store = nil
	return err
}

// ListFolders lists the live folders and records them in the cache.
func (p *Provider) ListFolders(ctx context.Context) (email.Folders, error) {
	lister, ok := p.upstream.(backend.FolderLister)
	if !ok {
		return nil, fmt.Errorf("%s provider cannot list folders", p.upstream.Name())
	}
	folders, err := lister.ListFolders(ctx)
	if err != nil {
		return nil, err
	}
	store, err := p.open()
	if err != nil {
		return nil, err
	}
	if err := store.SaveFolders(folders); err != nil {
		return nil, err
	}
	return folders, nil
}

func (p *Provider) GetMessages(ctx context.Context, folder string, ids []string) ([]email.Message, error) {
	getter, ok := p.upstream.(backend.MessageGetter)
	if !ok {
		return nil, fmt.Errorf("%s provider cannot get messages", p.upstream.Name())
	}
	return p.fetch(ctx, folder, ids, getter.GetMessages)
}

func (p *Provider) PeekMessages(ctx context.Context, folder string, ids []string) ([]email.Message, error) {
	peeker, ok := p.upstream.(backend.MessagePeeker)
	if !ok {
		return nil, fmt.Errorf("%s provider cannot peek messages", p.upstream.Name())
	}
	return p.fetch(ctx, folder, ids, peeker.PeekMessages)
}

type fetchFunc func(ctx context.Context, folder string, ids []string) ([]email.Message, error)

func (p *Provider) fetch(ctx context.Context, folder string, ids []string, live fetchFunc) ([]email.Message, error) {
	store, err := p.open()
	if err != nil {
		return nil, err
	}
	if v, ok := p.upstream.(backend.FolderValidator); ok {
		validity, err := v.FolderValidity(ctx, folder)
		if err != nil {
			return nil, err
		}
		if _, err := store.CheckValidity(folder, validity); err != nil {
			return nil, err
		}
	}
	cached, err := store.Messages(folder, ids)
	if err != nil {
		return nil, err
	}

	missing := []string{}
	for _, id := range ids {
		if _, ok := cached[id]; !ok {
			missing = append(missing, id)
		}
	}
	store.l.WithField("folder", folder).Debugf("%d cached, %d to fetch", len(ids)-len(missing), len(missing))

	if len(missing) > 0 {
		fetched, err := live(ctx, folder, missing)
		if err != nil {
			return nil, err
		}
		if err := store.SaveMessages(folder, fetched); err != nil {
			return nil, err
		}
		for _, m := range fetched {
			cached[m.ID] = m
		}
	}

	messages := make([]email.Message, 0, len(ids))
	for _, id := range ids {
		m, ok := cached[id]
		if !ok {
			return nil, fmt.Errorf("message %s not found in folder %s", id, folder)
		}
		messages = append(messages, m)
	}
	return messages, nil
}
