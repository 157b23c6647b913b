package backend

import (
	"context"
	"errors"
	"io"
	"sort"

	"github.com/DEVBOX10/himalaya/internal/email"
)

// Backend is the result of a resolution: each resolved capability is bound
// to exactly one provider. Calling a method whose capability was not
// resolved returns a *CapabilityUnsupportedError without touching any
// provider.
type Backend struct {
	account  string
	bindings map[Capability]Provider
	opened   []Provider
}

func (b *Backend) Account() string {
	return b.account
}

// Has reports whether c was bound during resolution.
func (b *Backend) Has(c Capability) bool {
	_, ok := b.bindings[c]
	return ok
}

// Capabilities returns the bound capabilities in declaration order.
func (b *Backend) Capabilities() []Capability {
	caps := make([]Capability, 0, len(b.bindings))
	for c := range b.bindings {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}

// ProviderName returns the name of the provider serving c, or "" when c is
// not bound.
func (b *Backend) ProviderName(c Capability) string {
	if p, ok := b.bindings[c]; ok {
		return p.Name()
	}
	return ""
}

// FolderValidity asks the provider bound to c for the validity of folder.
// ok is false when that provider has no notion of folder validity.
func (b *Backend) FolderValidity(ctx context.Context, c Capability, folder string) (validity uint32, ok bool, err error) {
	p, bound := b.bindings[c]
	if !bound {
		return 0, false, &CapabilityUnsupportedError{Capability: c, Account: b.account}
	}
	v, implements := p.(FolderValidator)
	if !implements {
		return 0, false, nil
	}
	validity, err = v.FolderValidity(ctx, folder)
	return validity, err == nil, err
}

// Close releases every provider built for this backend.
func (b *Backend) Close() error {
	var errs []error
	for _, p := range b.opened {
		if err := closeProvider(p); err != nil {
			errs = append(errs, err)
		}
	}
	b.opened = nil
	return errors.Join(errs...)
}

func closeProvider(p Provider) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func bound[T any](b *Backend, c Capability) (T, error) {
	var zero T
	p, ok := b.bindings[c]
	if !ok {
		return zero, &CapabilityUnsupportedError{Capability: c, Account: b.account}
	}
	impl, ok := p.(T)
	if !ok {
		return zero, &CapabilityUnsupportedError{Capability: c, Account: b.account}
	}
	return impl, nil
}

func (b *Backend) AddFolder(ctx context.Context, folder string) error {
	p, err := bound[FolderAdder](b, AddFolder)
	if err != nil {
		return err
	}
	return p.AddFolder(ctx, folder)
}

func (b *Backend) ListFolders(ctx context.Context) (email.Folders, error) {
	p, err := bound[FolderLister](b, ListFolders)
	if err != nil {
		return nil, err
	}
	return p.ListFolders(ctx)
}

func (b *Backend) ExpungeFolder(ctx context.Context, folder string) error {
	p, err := bound[FolderExpunger](b, ExpungeFolder)
	if err != nil {
		return err
	}
	return p.ExpungeFolder(ctx, folder)
}

func (b *Backend) PurgeFolder(ctx context.Context, folder string) error {
	p, err := bound[FolderPurger](b, PurgeFolder)
	if err != nil {
		return err
	}
	return p.PurgeFolder(ctx, folder)
}

func (b *Backend) DeleteFolder(ctx context.Context, folder string) error {
	p, err := bound[FolderDeleter](b, DeleteFolder)
	if err != nil {
		return err
	}
	return p.DeleteFolder(ctx, folder)
}

func (b *Backend) GetEnvelope(ctx context.Context, folder, id string) (email.Envelope, error) {
	p, err := bound[EnvelopeGetter](b, GetEnvelope)
	if err != nil {
		return email.Envelope{}, err
	}
	return p.GetEnvelope(ctx, folder, id)
}

func (b *Backend) ListEnvelopes(ctx context.Context, folder string, page, pageSize int) (email.Envelopes, error) {
	p, err := bound[EnvelopeLister](b, ListEnvelopes)
	if err != nil {
		return nil, err
	}
	return p.ListEnvelopes(ctx, folder, page, pageSize)
}

func (b *Backend) SearchEnvelopes(ctx context.Context, folder, query string, page, pageSize int) (email.Envelopes, error) {
	p, err := bound[EnvelopeSearcher](b, SearchEnvelopes)
	if err != nil {
		return nil, err
	}
	return p.SearchEnvelopes(ctx, folder, query, page, pageSize)
}

func (b *Backend) AddMessage(ctx context.Context, folder string, raw []byte, flags []string) (string, error) {
	p, err := bound[MessageAdder](b, AddMessage)
	if err != nil {
		return "", err
	}
	return p.AddMessage(ctx, folder, raw, flags)
}

func (b *Backend) GetMessages(ctx context.Context, folder string, ids []string) ([]email.Message, error) {
	p, err := bound[MessageGetter](b, GetMessages)
	if err != nil {
		return nil, err
	}
	return p.GetMessages(ctx, folder, ids)
}

func (b *Backend) PeekMessages(ctx context.Context, folder string, ids []string) ([]email.Message, error) {
	p, err := bound[MessagePeeker](b, PeekMessages)
	if err != nil {
		return nil, err
	}
	return p.PeekMessages(ctx, folder, ids)
}

func (b *Backend) CopyMessages(ctx context.Context, from, to string, ids []string) error {
	p, err := bound[MessageCopier](b, CopyMessages)
	if err != nil {
		return err
	}
	return p.CopyMessages(ctx, from, to, ids)
}

func (b *Backend) MoveMessages(ctx context.Context, from, to string, ids []string) error {
	p, err := bound[MessageMover](b, MoveMessages)
	if err != nil {
		return err
	}
	return p.MoveMessages(ctx, from, to, ids)
}

func (b *Backend) DeleteMessages(ctx context.Context, folder string, ids []string) error {
	p, err := bound[MessageDeleter](b, DeleteMessages)
	if err != nil {
		return err
	}
	return p.DeleteMessages(ctx, folder, ids)
}

func (b *Backend) AddFlags(ctx context.Context, folder string, ids, flags []string) error {
	p, err := bound[FlagAdder](b, AddFlags)
	if err != nil {
		return err
	}
	return p.AddFlags(ctx, folder, ids, flags)
}

func (b *Backend) SetFlags(ctx context.Context, folder string, ids, flags []string) error {
	p, err := bound[FlagSetter](b, SetFlags)
	if err != nil {
		return err
	}
	return p.SetFlags(ctx, folder, ids, flags)
}

func (b *Backend) RemoveFlags(ctx context.Context, folder string, ids, flags []string) error {
	p, err := bound[FlagRemover](b, RemoveFlags)
	if err != nil {
		return err
	}
	return p.RemoveFlags(ctx, folder, ids, flags)
}

func (b *Backend) SendMessage(ctx context.Context, raw []byte) error {
	p, err := bound[MessageSender](b, SendMessage)
	if err != nil {
		return err
	}
	return p.SendMessage(ctx, raw)
}
