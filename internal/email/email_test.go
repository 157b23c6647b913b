package email

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawWithUnnamedAttachment = "From: a@example.com\r\n" +
	"To: b@example.com\r\n" +
	"Subject: files\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=XYZ\r\n" +
	"\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"hello\r\n" +
	"--XYZ\r\n" +
	"Content-Type: application/octet-stream\r\n" +
	"Content-Disposition: attachment\r\n" +
	"\r\n" +
	"binary\r\n" +
	"--XYZ--\r\n"

func TestAttachmentsFromComposedMessage(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "notes.txt")
	second := filepath.Join(dir, "data.bin")
	require.NoError(t, os.WriteFile(first, []byte("some notes"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte{0, 1, 2, 3}, 0o600))

	raw, err := BuildMessage(ComposeInput{
		From:        "me@example.com",
		To:          []string{"you@example.com"},
		Subject:     "with files",
		Body:        "see attached",
		Attachments: []string{first, second},
	})
	require.NoError(t, err)

	attachments, err := Message{ID: "1", Raw: raw}.Attachments()
	require.NoError(t, err)
	require.Len(t, attachments, 2)

	assert.Equal(t, "notes.txt", attachments[0].Filename)
	assert.Equal(t, "text/plain", attachments[0].MIMEType)
	assert.Equal(t, "some notes", string(attachments[0].Body))
	assert.Equal(t, "data.bin", attachments[1].Filename)
	assert.Equal(t, []byte{0, 1, 2, 3}, attachments[1].Body)
}

func TestAttachmentsWithoutFilename(t *testing.T) {
	attachments, err := Message{ID: "2", Raw: []byte(rawWithUnnamedAttachment)}.Attachments()
	require.NoError(t, err)
	require.Len(t, attachments, 1)
	assert.Equal(t, "", attachments[0].Filename)
	assert.Equal(t, "binary", string(attachments[0].Body))
}

func TestAttachmentsNone(t *testing.T) {
	raw, err := BuildMessage(ComposeInput{From: "me@example.com", To: []string{"you@example.com"}, Body: "plain"})
	require.NoError(t, err)

	attachments, err := Message{ID: "3", Raw: raw}.Attachments()
	require.NoError(t, err)
	assert.Empty(t, attachments)
}

func TestAttachmentsMalformedMessage(t *testing.T) {
	_, err := Message{ID: "4", Raw: []byte("this is not a header\r\n\r\nbody")}.Attachments()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message 4")
}

func TestExtractEnvelopeAndStripBcc(t *testing.T) {
	raw, err := BuildMessage(ComposeInput{
		From: "me@example.com",
		To:   []string{"to@example.com"},
		Cc:   []string{"Cc Person <cc@example.com>"},
		Bcc:  []string{"hidden@example.com"},
		Body: "hi",
	})
	require.NoError(t, err)

	from, recipients, err := ExtractEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", from)
	assert.Equal(t, []string{"to@example.com", "cc@example.com", "hidden@example.com"}, recipients)

	stripped := StripBcc(raw)
	assert.NotContains(t, strings.ToLower(string(stripped)), "hidden@example.com")
	assert.Contains(t, string(stripped), "to@example.com")
	assert.Contains(t, string(stripped), "\r\n\r\nhi")
}

func TestBuildMessageRequiresFrom(t *testing.T) {
	_, err := BuildMessage(ComposeInput{})
	assert.Error(t, err)
}

func TestFoldersNamesDeduplicates(t *testing.T) {
	folders := Folders{{Name: "INBOX"}, {Name: "Sent"}, {Name: "INBOX"}}
	assert.Equal(t, []string{"INBOX", "Sent"}, folders.Names())
	assert.Equal(t, [][]string{{"", "INBOX", ""}, {"", "Sent", ""}, {"", "INBOX", ""}}, folders.Rows())
}

func TestReadPrefersPlainBody(t *testing.T) {
	raw, err := BuildMessage(ComposeInput{
		From:    "me@example.com",
		To:      []string{"you@example.com"},
		Cc:      []string{"cc@example.com"},
		Subject: "status",
		Body:    "all good",
	})
	require.NoError(t, err)

	r, err := Message{ID: "9", Raw: raw}.Read()
	require.NoError(t, err)
	assert.Equal(t, "9", r.ID)
	assert.Equal(t, "status", r.Subject)
	assert.Contains(t, r.From, "me@example.com")
	assert.Contains(t, r.Cc, "cc@example.com")
	assert.Equal(t, "all good", strings.TrimSpace(r.Body))
	assert.Empty(t, r.Attachments)

	out := r.String()
	assert.True(t, strings.HasPrefix(out, "ID: 9\nSubject: status\n"))
	assert.True(t, strings.HasSuffix(out, "\n\nall good"))
}

func TestReadFallsBackToStrippedHTML(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Subject: news\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<html><style>p{}</style><body><p>Hello &amp; <b>world</b></p></body></html>\r\n"

	r, err := Message{ID: "1", Raw: []byte(raw)}.Read()
	require.NoError(t, err)
	assert.Equal(t, "Hello & world", r.Body)
}

func TestReadListsAttachmentNames(t *testing.T) {
	r, err := Message{ID: "2", Raw: []byte(rawWithUnnamedAttachment)}.Read()
	require.NoError(t, err)
	assert.Equal(t, "hello", strings.TrimSpace(r.Body))
	assert.Equal(t, []string{"(unnamed)"}, r.Attachments)
	assert.Contains(t, r.String(), "Attachments: (unnamed)\n")
}
