package email

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

type ComposeInput struct {
	From        string
	FromName    string
	To          []string
	Cc          []string
	Bcc         []string
	Subject     string
	Body        string
	Attachments []string
}

func BuildMessage(in ComposeInput) ([]byte, error) {
	if in.From == "" {
		return nil, fmt.Errorf("from address is required")
	}

	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Name: in.FromName, Address: in.From}})
	if len(in.To) > 0 {
		h.SetAddressList("To", toAddresses(in.To))
	}
	if len(in.Cc) > 0 {
		h.SetAddressList("Cc", toAddresses(in.Cc))
	}
	if len(in.Bcc) > 0 {
		h.SetAddressList("Bcc", toAddresses(in.Bcc))
	}
	if in.Subject != "" {
		h.SetSubject(in.Subject)
	}
	if err := h.GenerateMessageID(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	if len(in.Attachments) == 0 {
		h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		h.Set("Content-Transfer-Encoding", "quoted-printable")
		w, err := mail.CreateSingleInlineWriter(&buf, h)
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(w, in.Body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, err
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return nil, err
	}
	var th mail.InlineHeader
	th.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	th.Set("Content-Transfer-Encoding", "quoted-printable")
	textPart, err := tw.CreatePart(th)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(textPart, in.Body); err != nil {
		return nil, err
	}
	if err := textPart.Close(); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}

	for _, attachmentPath := range in.Attachments {
		if attachmentPath == "" {
			continue
		}
		data, err := os.ReadFile(attachmentPath)
		if err != nil {
			return nil, fmt.Errorf("cannot read attachment %s: %w", attachmentPath, err)
		}
		filename := filepath.Base(attachmentPath)
		contentType := mime.TypeByExtension(filepath.Ext(filename))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		var ah mail.AttachmentHeader
		ah.Set("Content-Type", contentType)
		ah.SetFilename(filename)
		ah.Set("Content-Transfer-Encoding", "base64")
		part, err := mw.CreateAttachment(ah)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(data); err != nil {
			return nil, err
		}
		if err := part.Close(); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// ExtractEnvelope returns the sender and every To, Cc and Bcc recipient of raw.
func ExtractEnvelope(raw []byte) (string, []string, error) {
	reader, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return "", nil, err
	}
	defer reader.Close()

	header := reader.Header

	from := ""
	senders, err := header.AddressList("From")
	if err != nil {
		return "", nil, err
	}
	if len(senders) > 0 {
		from = senders[0].Address
	}

	recipients := []string{}
	for _, field := range []string{"To", "Cc", "Bcc"} {
		list, err := header.AddressList(field)
		if err != nil {
			return "", nil, err
		}
		for _, addr := range list {
			recipients = append(recipients, addr.Address)
		}
	}

	return from, recipients, nil
}

// StripBcc removes the Bcc header (and its continuation lines) from raw so
// the message can be handed to a transport without leaking blind copies.
func StripBcc(raw []byte) []byte {
	var out bytes.Buffer
	reader := bufio.NewReader(bytes.NewReader(raw))
	skipping := false
	for {
		line, err := reader.ReadString('\n')
		if line == "\r\n" || line == "\n" || (line == "" && err != nil) {
			out.WriteString(line)
			break
		}
		continuation := strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
		if continuation && skipping {
			continue
		}
		skipping = !continuation && strings.HasPrefix(strings.ToLower(line), "bcc:")
		if !skipping {
			out.WriteString(line)
		}
		if err != nil {
			return out.Bytes()
		}
	}
	rest, _ := io.ReadAll(reader)
	out.Write(rest)
	return out.Bytes()
}

func toAddresses(list []string) []*mail.Address {
	addrs := make([]*mail.Address, 0, len(list))
	for _, item := range list {
		if parsed, err := mail.ParseAddress(item); err == nil {
			addrs = append(addrs, parsed)
			continue
		}
		addrs = append(addrs, &mail.Address{Address: item})
	}
	return addrs
}
