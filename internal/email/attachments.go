package email

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
)

// Attachments walks the MIME tree of the message and returns every part
// declared as an attachment, in order. A malformed message is an error.
func (m Message) Attachments() ([]Attachment, error) {
	reader, err := mail.CreateReader(bytes.NewReader(m.Raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("cannot parse message %s: %w", m.ID, err)
	}
	defer reader.Close()

	attachments := []Attachment{}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return nil, fmt.Errorf("cannot parse message %s: %w", m.ID, err)
		}
		if part == nil {
			continue
		}

		header, ok := part.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}

		filename, err := header.Filename()
		if err != nil {
			filename = ""
		}
		mimeType, _, err := header.ContentType()
		if err != nil || mimeType == "" {
			mimeType = "application/octet-stream"
		}

		body, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, fmt.Errorf("cannot read attachment of message %s: %w", m.ID, err)
		}

		attachments = append(attachments, Attachment{
			Filename: filename,
			MIMEType: mimeType,
			Body:     body,
		})
	}

	return attachments, nil
}
