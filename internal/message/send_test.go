package message

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DEVBOX10/himalaya/internal/backend"
	"github.com/DEVBOX10/himalaya/internal/config"
	"github.com/DEVBOX10/himalaya/internal/email"
	"github.com/DEVBOX10/himalaya/internal/printer"
)

type outbox struct {
	sent [][]byte
}

func (o *outbox) Name() string                       { return "smtp" }
func (o *outbox) Supports(c backend.Capability) bool { return c == backend.SendMessage }
func (o *outbox) SendMessage(ctx context.Context, raw []byte) error {
	o.sent = append(o.sent, raw)
	return nil
}

type mailbox struct {
	added map[string][]string
}

func (m *mailbox) Name() string                       { return "imap" }
func (m *mailbox) Supports(c backend.Capability) bool { return c == backend.AddMessage }
func (m *mailbox) AddMessage(ctx context.Context, folder string, raw []byte, flags []string) (string, error) {
	m.added[folder] = append(m.added[folder], string(raw))
	return "1", nil
}

func setup(t *testing.T) (*outbox, *mailbox, *backend.Resolver, *config.AccountConfig, *bytes.Buffer, printer.Printer) {
	t.Helper()
	ob := &outbox{}
	mb := &mailbox{added: map[string][]string{}}
	r := backend.NewResolver()
	r.Register("smtp", func(*config.AccountConfig) (backend.Provider, error) { return ob, nil })
	r.Register("imap", func(*config.AccountConfig) (backend.Provider, error) { return mb, nil })
	acct := &config.AccountConfig{Name: "work", Email: "me@example.com", DisplayName: "Me", Backends: []string{"imap", "smtp"}}
	var out bytes.Buffer
	p, err := printer.NewStdoutPrinter(&out, printer.OutputPlain)
	require.NoError(t, err)
	return ob, mb, r, acct, &out, p
}

func TestSendUsesAccountSender(t *testing.T) {
	ob, mb, r, acct, out, p := setup(t)

	require.NoError(t, Send(context.Background(), p, r, acct, email.ComposeInput{
		To:      []string{"you@example.com"},
		Subject: "hi",
		Body:    "hello",
	}, ""))

	require.Len(t, ob.sent, 1)
	from, recipients, err := email.ExtractEnvelope(ob.sent[0])
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", from)
	assert.Equal(t, []string{"you@example.com"}, recipients)
	assert.Empty(t, mb.added)
	assert.Equal(t, "Message successfully sent!\n", out.String())
}

func TestSendKeepsCopyWithoutBcc(t *testing.T) {
	ob, mb, r, acct, _, p := setup(t)

	require.NoError(t, Send(context.Background(), p, r, acct, email.ComposeInput{
		To:   []string{"you@example.com"},
		Bcc:  []string{"hidden@example.com"},
		Body: "hello",
	}, "Sent"))

	require.Len(t, ob.sent, 1)
	require.Len(t, mb.added["Sent"], 1)
	assert.NotContains(t, mb.added["Sent"][0], "hidden@example.com")
}
