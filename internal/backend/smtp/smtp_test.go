package smtp

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DEVBOX10/himalaya/internal/backend"
	"github.com/DEVBOX10/himalaya/internal/config"
	"github.com/DEVBOX10/himalaya/internal/email"
)

func testAccount() *config.AccountConfig {
	return &config.AccountConfig{
		Name:  "work",
		Email: "me@example.com",
		SMTP:  &config.SMTPConfig{Host: "smtp.example.com", Port: 587, Encryption: config.EncryptionStartTLS, Login: "me@example.com"},
	}
}

func TestSendMessageStripsBcc(t *testing.T) {
	p, err := NewProvider(testAccount(), func() (string, error) { return "pw", nil })
	require.NoError(t, err)

	var gotFrom, gotPassword string
	var gotRecipients []string
	var gotMsg []byte
	p.Transport = func(cfg *config.SMTPConfig, password, from string, recipients []string, msg []byte) error {
		gotPassword = password
		gotFrom = from
		gotRecipients = recipients
		gotMsg = msg
		return nil
	}

	raw, err := email.BuildMessage(email.ComposeInput{
		From: "me@example.com",
		To:   []string{"you@example.com"},
		Bcc:  []string{"secret@example.com"},
		Body: "hello",
	})
	require.NoError(t, err)

	require.NoError(t, p.SendMessage(context.Background(), raw))
	assert.Equal(t, "pw", gotPassword)
	assert.Equal(t, "me@example.com", gotFrom)
	assert.Equal(t, []string{"you@example.com", "secret@example.com"}, gotRecipients)
	assert.False(t, strings.Contains(string(gotMsg), "secret@example.com"))
}

func TestSendMessageWithoutRecipients(t *testing.T) {
	p, err := NewProvider(testAccount(), nil)
	require.NoError(t, err)
	p.Transport = func(*config.SMTPConfig, string, string, []string, []byte) error {
		t.Fatal("transport must not be called")
		return nil
	}

	raw, err := email.BuildMessage(email.ComposeInput{From: "me@example.com", Body: "nobody"})
	require.NoError(t, err)
	assert.Error(t, p.SendMessage(context.Background(), raw))
}

func TestProviderCapabilities(t *testing.T) {
	p, err := NewProvider(testAccount(), nil)
	require.NoError(t, err)
	assert.Equal(t, "smtp", p.Name())
	assert.True(t, backend.Implements(p, backend.SendMessage))
	assert.False(t, backend.Implements(p, backend.ListFolders))
}

func TestNewProviderRequiresHost(t *testing.T) {
	acct := testAccount()
	acct.SMTP.Host = ""
	_, err := NewProvider(acct, nil)
	assert.Error(t, err)
}
