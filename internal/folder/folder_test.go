package folder

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DEVBOX10/himalaya/internal/backend"
	"github.com/DEVBOX10/himalaya/internal/config"
	"github.com/DEVBOX10/himalaya/internal/email"
	"github.com/DEVBOX10/himalaya/internal/printer"
)

type fakeFolders struct {
	folders email.Folders
	calls   []string
	err     error
}

func (f *fakeFolders) Name() string                       { return "imap" }
func (f *fakeFolders) Supports(c backend.Capability) bool { return true }

func (f *fakeFolders) ListFolders(ctx context.Context) (email.Folders, error) {
	f.calls = append(f.calls, "list")
	return f.folders, f.err
}

func (f *fakeFolders) AddFolder(ctx context.Context, name string) error {
	f.calls = append(f.calls, "add "+name)
	return f.err
}

func (f *fakeFolders) DeleteFolder(ctx context.Context, name string) error {
	f.calls = append(f.calls, "delete "+name)
	return f.err
}

func (f *fakeFolders) ExpungeFolder(ctx context.Context, name string) error {
	f.calls = append(f.calls, "expunge "+name)
	return f.err
}

func (f *fakeFolders) PurgeFolder(ctx context.Context, name string) error {
	f.calls = append(f.calls, "purge "+name)
	return f.err
}

type answer struct {
	ok     bool
	err    error
	titles []string
}

func (a *answer) Confirm(title string) (bool, error) {
	a.titles = append(a.titles, title)
	return a.ok, a.err
}

func setup(t *testing.T, fake *fakeFolders) (*backend.Resolver, *config.AccountConfig, *bytes.Buffer, printer.Printer) {
	t.Helper()
	r := backend.NewResolver()
	r.Register("imap", func(*config.AccountConfig) (backend.Provider, error) { return fake, nil })
	acct := &config.AccountConfig{Name: "work", Backends: []string{"imap"}}
	var out bytes.Buffer
	p, err := printer.NewStdoutPrinter(&out, printer.OutputPlain)
	require.NoError(t, err)
	return r, acct, &out, p
}

func TestListRendersFolderTable(t *testing.T) {
	fake := &fakeFolders{folders: email.Folders{
		{Delim: "/", Name: "INBOX", Desc: "desc"},
		{Delim: "/", Name: "Sent", Desc: "desc"},
	}}
	r, acct, out, p := setup(t, fake)

	require.NoError(t, List(context.Background(), p, r, acct, 0))
	assert.Equal(t, "\n"+
		"DELIM │NAME  │DESC \n"+
		"/     │INBOX │desc \n"+
		"/     │Sent  │desc \n"+
		"\n", out.String())
}

func TestListJSON(t *testing.T) {
	fake := &fakeFolders{folders: email.Folders{{Delim: "/", Name: "INBOX"}}}
	r, acct, _, _ := setup(t, fake)
	var out bytes.Buffer
	p, err := printer.NewStdoutPrinter(&out, printer.OutputJSON)
	require.NoError(t, err)

	require.NoError(t, List(context.Background(), p, r, acct, 0))
	assert.JSONEq(t, `[{"name":"INBOX","delim":"/","desc":""}]`, out.String())
}

func TestCreateAndExpunge(t *testing.T) {
	fake := &fakeFolders{}
	r, acct, out, p := setup(t, fake)

	require.NoError(t, Create(context.Background(), p, r, acct, "Archive"))
	require.NoError(t, Expunge(context.Background(), p, r, acct, "INBOX"))

	assert.Equal(t, []string{"add Archive", "expunge INBOX"}, fake.calls)
	assert.Equal(t, "Folder successfully created!\nFolder INBOX successfully expunged!\n", out.String())
}

func TestCreatePropagatesBackendError(t *testing.T) {
	fake := &fakeFolders{err: errors.New("already exists")}
	r, acct, out, p := setup(t, fake)

	err := Create(context.Background(), p, r, acct, "Archive")
	assert.EqualError(t, err, "already exists")
	assert.Empty(t, out.String())
}

func TestDeleteDeclinedDoesNothing(t *testing.T) {
	fake := &fakeFolders{}
	r, acct, out, p := setup(t, fake)
	confirm := &answer{ok: false}

	require.NoError(t, Delete(context.Background(), p, r, acct, "Archive", confirm))
	assert.Empty(t, fake.calls)
	assert.Empty(t, out.String())
	assert.Equal(t, []string{"Confirm deletion of folder Archive?"}, confirm.titles)
}

func TestDeleteConfirmed(t *testing.T) {
	fake := &fakeFolders{}
	r, acct, out, p := setup(t, fake)

	require.NoError(t, Delete(context.Background(), p, r, acct, "Archive", &answer{ok: true}))
	assert.Equal(t, []string{"delete Archive"}, fake.calls)
	assert.Equal(t, "Folder successfully deleted!\n", out.String())
}

func TestDeletePromptFailure(t *testing.T) {
	fake := &fakeFolders{}
	r, acct, _, p := setup(t, fake)

	err := Delete(context.Background(), p, r, acct, "Archive", &answer{err: errors.New("no tty")})
	assert.Error(t, err)
	assert.Empty(t, fake.calls)
}

func TestPurge(t *testing.T) {
	fake := &fakeFolders{}
	r, acct, out, p := setup(t, fake)

	require.NoError(t, Purge(context.Background(), p, r, acct, "Trash", &answer{ok: false}))
	assert.Empty(t, fake.calls)

	require.NoError(t, Purge(context.Background(), p, r, acct, "Trash", &answer{ok: true}))
	assert.Equal(t, []string{"purge Trash"}, fake.calls)
	assert.Equal(t, "Folder Trash successfully purged!\n", out.String())
}

func TestExecutorFailsWithoutCapability(t *testing.T) {
	r := backend.NewResolver()
	acct := &config.AccountConfig{Name: "work", Backends: []string{"smtp"}}
	r.Register("smtp", func(*config.AccountConfig) (backend.Provider, error) { return &fakeSender{}, nil })
	p, err := printer.NewStdoutPrinter(&bytes.Buffer{}, printer.OutputPlain)
	require.NoError(t, err)

	err = List(context.Background(), p, r, acct, 0)
	assert.ErrorIs(t, err, backend.ErrCapabilityUnsupported)
}

type fakeSender struct{}

func (fakeSender) Name() string                       { return "smtp" }
func (fakeSender) Supports(c backend.Capability) bool { return c == backend.SendMessage }
func (fakeSender) SendMessage(ctx context.Context, raw []byte) error {
	return nil
}
