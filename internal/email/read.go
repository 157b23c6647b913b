package email

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
)

// Reading is the human view of a message: its main headers, the text body
// and the names of its attachments.
type Reading struct {
	ID          string   `json:"id"`
	Subject     string   `json:"subject,omitempty"`
	From        string   `json:"from,omitempty"`
	To          string   `json:"to,omitempty"`
	Cc          string   `json:"cc,omitempty"`
	Date        string   `json:"date,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
	Body        string   `json:"body"`
}

// Read parses the message. The first text/plain part is the body; when the
// message only has HTML, the HTML part stripped of its tags is used.
func (m Message) Read() (Reading, error) {
	reader, err := mail.CreateReader(bytes.NewReader(m.Raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return Reading{}, fmt.Errorf("cannot parse message %s: %w", m.ID, err)
	}
	defer reader.Close()

	header := reader.Header
	r := Reading{
		ID:      m.ID,
		From:    header.Get("From"),
		To:      header.Get("To"),
		Cc:      header.Get("Cc"),
		Subject: header.Get("Subject"),
	}
	if subject, err := header.Subject(); err == nil {
		r.Subject = subject
	}
	if date, err := header.Date(); err == nil && !date.IsZero() {
		r.Date = date.Format("2006-01-02 15:04:05 -0700")
	}

	var plain, htmlBody string
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return Reading{}, fmt.Errorf("cannot parse message %s: %w", m.ID, err)
		}
		if part == nil {
			continue
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			if contentType == "" {
				contentType = "text/plain"
			}
			switch {
			case strings.HasPrefix(contentType, "text/plain") && plain == "":
				plain = readAll(part.Body)
			case strings.HasPrefix(contentType, "text/html") && htmlBody == "":
				htmlBody = readAll(part.Body)
			}
		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			if filename == "" {
				filename = "(unnamed)"
			}
			r.Attachments = append(r.Attachments, filename)
		}
	}

	if plain != "" && looksLikeHTML(plain) {
		htmlBody, plain = plain, ""
	}
	r.Body = plain
	if r.Body == "" && htmlBody != "" {
		r.Body = StripHTMLTags(htmlBody)
	}
	return r, nil
}

// String renders the reading the way it is printed on a terminal.
func (r Reading) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID: %s\n", r.ID)
	for _, h := range [][2]string{
		{"Subject", r.Subject},
		{"From", r.From},
		{"To", r.To},
		{"Cc", r.Cc},
		{"Date", r.Date},
	} {
		if h[1] != "" {
			fmt.Fprintf(&b, "%s: %s\n", h[0], h[1])
		}
	}
	if len(r.Attachments) > 0 {
		fmt.Fprintf(&b, "Attachments: %s\n", strings.Join(r.Attachments, ", "))
	}
	b.WriteString("\n")
	b.WriteString(strings.TrimRight(r.Body, "\r\n"))
	return b.String()
}

func readAll(r io.Reader) string {
	data, err := io.ReadAll(r)
	if err != nil {
		return ""
	}
	return string(data)
}

func looksLikeHTML(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<body") || strings.Contains(lower, "<div") || strings.Contains(lower, "<br")
}

var (
	scriptPattern     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	stylePattern      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`[ \t]+`)
	blankLinesPattern = regexp.MustCompile(`\n\s*\n+`)
)

// StripHTMLTags turns an HTML body into readable text. Scripts and styles
// are dropped, entities unescaped.
func StripHTMLTags(s string) string {
	s = scriptPattern.ReplaceAllString(s, "")
	s = stylePattern.ReplaceAllString(s, "")
	s = htmlTagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = whitespacePattern.ReplaceAllString(s, " ")
	s = blankLinesPattern.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
