package backend

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DEVBOX10/himalaya/internal/config"
	"github.com/DEVBOX10/himalaya/internal/email"
	"github.com/DEVBOX10/himalaya/internal/log"
)

type fakeProvider struct {
	name     string
	caps     map[Capability]bool
	calls    []string
	closed   bool
	messages map[string]string
}

func newFake(name string, caps ...Capability) *fakeProvider {
	p := &fakeProvider{name: name, caps: map[Capability]bool{}, messages: map[string]string{}}
	for _, c := range caps {
		p.caps[c] = true
	}
	return p
}

func (p *fakeProvider) Name() string               { return p.name }
func (p *fakeProvider) Supports(c Capability) bool { return p.caps[c] }
func (p *fakeProvider) Close() error {
	p.closed = true
	return nil
}

func (p *fakeProvider) ListFolders(ctx context.Context) (email.Folders, error) {
	p.calls = append(p.calls, "list-folders")
	return email.Folders{{Name: "INBOX", Delim: "/"}}, nil
}

func (p *fakeProvider) AddFolder(ctx context.Context, folder string) error {
	p.calls = append(p.calls, "add-folder "+folder)
	return nil
}

func (p *fakeProvider) GetMessages(ctx context.Context, folder string, ids []string) ([]email.Message, error) {
	p.calls = append(p.calls, "get-messages")
	out := make([]email.Message, 0, len(ids))
	for _, id := range ids {
		out = append(out, email.Message{ID: id, Raw: []byte(p.messages[id])})
	}
	return out, nil
}

// sendOnly declares ListFolders without implementing it.
type sendOnly struct{ sent int }

func (p *sendOnly) Name() string { return "smtp" }
func (p *sendOnly) Supports(c Capability) bool {
	return c == SendMessage || c == ListFolders
}

func (p *sendOnly) SendMessage(ctx context.Context, raw []byte) error {
	p.sent++
	return nil
}

type contextProvider struct {
	upstream Provider
	closed   bool
}

func (p *contextProvider) Name() string               { return "context" }
func (p *contextProvider) Supports(c Capability) bool { return c == GetMessages }
func (p *contextProvider) Close() error {
	p.closed = true
	return nil
}

func (p *contextProvider) GetMessages(ctx context.Context, folder string, ids []string) ([]email.Message, error) {
	return p.upstream.(MessageGetter).GetMessages(ctx, folder, ids)
}

func testAccount(backends ...string) *config.AccountConfig {
	return &config.AccountConfig{Name: "work", Backends: backends}
}

func TestResolveBindsFirstSupportingProvider(t *testing.T) {
	imapP := newFake("imap", ListFolders, AddFolder)
	other := newFake("maildir", ListFolders)

	r := NewResolver()
	r.Register("imap", func(*config.AccountConfig) (Provider, error) { return imapP, nil })
	r.Register("maildir", func(*config.AccountConfig) (Provider, error) { return other, nil })

	b, err := r.Resolve(context.Background(), testAccount("maildir", "imap"), []Capability{ListFolders, AddFolder})
	require.NoError(t, err)
	assert.Equal(t, "maildir", b.ProviderName(ListFolders))
	assert.Equal(t, "imap", b.ProviderName(AddFolder))

	folders, err := b.ListFolders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"INBOX"}, folders.Names())
	assert.Equal(t, []string{"list-folders"}, other.calls)
	assert.Empty(t, imapP.calls)

	require.NoError(t, b.Close())
	assert.True(t, imapP.closed)
	assert.True(t, other.closed)
}

func TestResolveUnsupportedCapability(t *testing.T) {
	r := NewResolver()
	r.Register("imap", func(*config.AccountConfig) (Provider, error) { return newFake("imap", ListFolders), nil })

	_, err := r.Resolve(context.Background(), testAccount("imap"), []Capability{ListFolders, SendMessage})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCapabilityUnsupported))

	var unsupported *CapabilityUnsupportedError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, SendMessage, unsupported.Capability)
	assert.Equal(t, "work", unsupported.Account)
	assert.Contains(t, err.Error(), "send-message")
}

func TestResolveRequiresMethodsBehindDeclaredCapability(t *testing.T) {
	p := &sendOnly{}
	r := NewResolver()
	r.Register("smtp", func(*config.AccountConfig) (Provider, error) { return p, nil })

	b, err := r.Resolve(context.Background(), testAccount("smtp"), []Capability{SendMessage})
	require.NoError(t, err)
	require.NoError(t, b.SendMessage(context.Background(), []byte("x")))
	assert.Equal(t, 1, p.sent)

	_, err = r.Resolve(context.Background(), testAccount("smtp"), []Capability{ListFolders})
	assert.ErrorIs(t, err, ErrCapabilityUnsupported)
}

func TestBackendRejectsUnresolvedCapability(t *testing.T) {
	p := newFake("imap", ListFolders, AddFolder)
	r := NewResolver()
	r.Register("imap", func(*config.AccountConfig) (Provider, error) { return p, nil })

	b, err := r.Resolve(context.Background(), testAccount("imap"), []Capability{ListFolders})
	require.NoError(t, err)
	assert.False(t, b.Has(AddFolder))

	err = b.AddFolder(context.Background(), "Archive")
	assert.ErrorIs(t, err, ErrCapabilityUnsupported)
	assert.Empty(t, p.calls)
}

func TestResolveBuildsOnlyNeededProviders(t *testing.T) {
	built := map[string]int{}
	r := NewResolver()
	r.Register("imap", func(*config.AccountConfig) (Provider, error) {
		built["imap"]++
		return newFake("imap", ListFolders), nil
	})
	r.Register("smtp", func(*config.AccountConfig) (Provider, error) {
		built["smtp"]++
		return nil, errors.New("smtp host is required")
	})

	_, err := r.Resolve(context.Background(), testAccount("imap", "smtp"), []Capability{ListFolders})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"imap": 1}, built)

	_, err = r.Resolve(context.Background(), testAccount("imap", "smtp"), []Capability{ListFolders})
	require.NoError(t, err)
	assert.Equal(t, 2, built["imap"])
}

func TestResolveUnknownBackendKind(t *testing.T) {
	r := NewResolver()
	_, err := r.Resolve(context.Background(), testAccount("notmuch"), []Capability{ListFolders})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notmuch")
	assert.False(t, errors.Is(err, ErrCapabilityUnsupported))
}

func TestResolveWithContextSource(t *testing.T) {
	live := newFake("imap", GetMessages)
	live.messages["7"] = "raw seven"
	var ctxProvider *contextProvider

	r := NewResolver()
	r.Register("imap", func(*config.AccountConfig) (Provider, error) { return live, nil })
	r.SetContextFactory(func(acct *config.AccountConfig, upstream Provider) (Provider, error) {
		ctxProvider = &contextProvider{upstream: upstream}
		return ctxProvider, nil
	})

	b, err := r.Resolve(context.Background(), testAccount("imap"), []Capability{GetMessages}, WithSource(GetMessages, SourceContext))
	require.NoError(t, err)
	assert.Equal(t, "context", b.ProviderName(GetMessages))

	msgs, err := b.GetMessages(context.Background(), "INBOX", []string{"7"})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "7", msgs[0].ID)
	assert.Equal(t, "raw seven", string(msgs[0].Raw))

	require.NoError(t, b.Close())
	assert.True(t, ctxProvider.closed)
	assert.True(t, live.closed)
}

func TestResolveContextSourceWithoutFactory(t *testing.T) {
	live := newFake("imap", GetMessages)
	r := NewResolver()
	r.Register("imap", func(*config.AccountConfig) (Provider, error) { return live, nil })

	_, err := r.Resolve(context.Background(), testAccount("imap"), []Capability{GetMessages}, WithSource(GetMessages, SourceContext))
	assert.ErrorIs(t, err, ErrCapabilityUnsupported)
	assert.True(t, live.closed)
}

func TestResolveCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewResolver().Resolve(ctx, testAccount("imap"), []Capability{ListFolders})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCapabilityNames(t *testing.T) {
	assert.Equal(t, "list-folders", ListFolders.String())
	assert.Equal(t, "send-message", SendMessage.String())
	assert.Equal(t, "capability(99)", Capability(99).String())
	assert.Len(t, AllCapabilities(), 18)
}

func TestResolveLogsToConfiguredWriter(t *testing.T) {
	var buf bytes.Buffer
	log.InitLogging("debug", &buf)
	t.Cleanup(func() { log.InitLogging("warn", os.Stderr) })

	r := NewResolver()
	r.Register("imap", func(*config.AccountConfig) (Provider, error) {
		return newFake("imap", ListFolders), nil
	})
	b, err := r.Resolve(context.Background(), &config.AccountConfig{Name: "work", Backends: []string{"imap"}}, []Capability{ListFolders})
	require.NoError(t, err)
	defer b.Close()

	assert.Contains(t, buf.String(), "bound capability")
	assert.Contains(t, buf.String(), "capability=list-folders")
}
