package imap

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/emersion/go-imap"

	"github.com/DEVBOX10/himalaya/internal/email"
)

var envelopeItems = []imap.FetchItem{imap.FetchEnvelope, imap.FetchFlags, imap.FetchUid}

func (p *Provider) ListEnvelopes(ctx context.Context, folder string, page, pageSize int) (email.Envelopes, error) {
	return p.listEnvelopes(ctx, folder, nil, page, pageSize)
}

func (p *Provider) SearchEnvelopes(ctx context.Context, folder, query string, page, pageSize int) (email.Envelopes, error) {
	criteria := imap.NewSearchCriteria()
	criteria.Text = []string{query}
	return p.listEnvelopes(ctx, folder, criteria, page, pageSize)
}

func (p *Provider) GetEnvelope(ctx context.Context, folder, id string) (email.Envelope, error) {
	seqset, _, err := parseUIDs([]string{id})
	if err != nil {
		return email.Envelope{}, err
	}
	c, err := p.selectFolder(ctx, folder, true)
	if err != nil {
		return email.Envelope{}, err
	}
	envelopes, err := fetchEnvelopes(c, seqset, 1)
	if err != nil {
		return email.Envelope{}, err
	}
	if len(envelopes) == 0 {
		return email.Envelope{}, fmt.Errorf("message %s not found in folder %s", id, folder)
	}
	return envelopes[0], nil
}

// listEnvelopes returns one page of envelopes, newest first. A pageSize of
// 0 returns every matching envelope.
func (p *Provider) listEnvelopes(ctx context.Context, folder string, criteria *imap.SearchCriteria, page, pageSize int) (email.Envelopes, error) {
	if page <= 0 {
		page = 1
	}

	c, err := p.selectFolder(ctx, folder, true)
	if err != nil {
		return nil, err
	}
	if criteria == nil {
		criteria = imap.NewSearchCriteria()
	}
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("cannot search folder %s: %w", folder, err)
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })

	total := len(uids)
	subset := uids
	if pageSize > 0 {
		end := total - (page-1)*pageSize
		if end <= 0 {
			return email.Envelopes{}, nil
		}
		start := end - pageSize
		if start < 0 {
			start = 0
		}
		subset = uids[start:end]
	}
	if len(subset) == 0 {
		return email.Envelopes{}, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(subset...)
	envelopes, err := fetchEnvelopes(c, seqset, len(subset))
	if err != nil {
		return nil, err
	}
	return envelopes, nil
}

func fetchEnvelopes(c Client, seqset *imap.SeqSet, size int) (email.Envelopes, error) {
	type entry struct {
		uid      uint32
		envelope email.Envelope
	}
	entries := []entry{}

	ch := make(chan *imap.Message, size)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, envelopeItems, ch)
	}()
	for msg := range ch {
		if msg == nil || msg.Envelope == nil {
			continue
		}
		entries = append(entries, entry{
			uid: msg.Uid,
			envelope: email.Envelope{
				ID:      formatUID(msg.Uid),
				Subject: msg.Envelope.Subject,
				From:    formatAddresses(msg.Envelope.From),
				Date:    msg.Envelope.Date,
				Flags:   msg.Flags,
			},
		})
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("cannot fetch envelopes: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].uid > entries[j].uid })
	envelopes := make(email.Envelopes, 0, len(entries))
	for _, e := range entries {
		envelopes = append(envelopes, e.envelope)
	}
	return envelopes, nil
}

func formatAddresses(addrs []*imap.Address) string {
	if len(addrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		if addr == nil {
			continue
		}
		full := addr.MailboxName
		if addr.HostName != "" {
			full = addr.MailboxName + "@" + addr.HostName
		}
		if addr.PersonalName != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", addr.PersonalName, full))
		} else {
			parts = append(parts, full)
		}
	}
	return strings.Join(parts, ", ")
}
