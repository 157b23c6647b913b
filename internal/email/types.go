package email

import (
	"strings"
	"time"
)

// Folder is a mailbox as reported by a backend.
type Folder struct {
	Name  string `json:"name"`
	Delim string `json:"delim"`
	Desc  string `json:"desc"`
}

// Folders keeps the backend order. Duplicates are allowed.
type Folders []Folder

func (f Folders) Header() []string {
	return []string{"DELIM", "NAME", "DESC"}
}

func (f Folders) Rows() [][]string {
	rows := make([][]string, 0, len(f))
	for _, folder := range f {
		rows = append(rows, []string{folder.Delim, folder.Name, folder.Desc})
	}
	return rows
}

// Names returns folder names in order, without duplicates.
func (f Folders) Names() []string {
	seen := make(map[string]bool, len(f))
	names := make([]string, 0, len(f))
	for _, folder := range f {
		if seen[folder.Name] {
			continue
		}
		seen[folder.Name] = true
		names = append(names, folder.Name)
	}
	return names
}

type Envelope struct {
	ID      string    `json:"id"`
	Subject string    `json:"subject"`
	From    string    `json:"from"`
	Date    time.Time `json:"date"`
	Flags   []string  `json:"flags,omitempty"`
}

type Envelopes []Envelope

func (e Envelopes) Header() []string {
	return []string{"ID", "FLAGS", "SUBJECT", "FROM", "DATE"}
}

func (e Envelopes) Rows() [][]string {
	rows := make([][]string, 0, len(e))
	for _, env := range e {
		date := ""
		if !env.Date.IsZero() {
			date = env.Date.Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{env.ID, strings.Join(env.Flags, " "), env.Subject, env.From, date})
	}
	return rows
}

// IDs returns the envelope ids in order.
func (e Envelopes) IDs() []string {
	ids := make([]string, 0, len(e))
	for _, env := range e {
		ids = append(ids, env.ID)
	}
	return ids
}

// Message is a raw RFC 5322 message together with the id it was fetched by.
type Message struct {
	ID  string
	Raw []byte
}

// Attachment is a downloaded attachment part. Filename is empty when the
// part did not declare one.
type Attachment struct {
	Filename string
	MIMEType string
	Body     []byte
}
