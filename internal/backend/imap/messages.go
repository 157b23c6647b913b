package imap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-imap"

	"github.com/DEVBOX10/himalaya/internal/email"
)

// GetMessages fetches the full messages and marks them as seen.
func (p *Provider) GetMessages(ctx context.Context, folder string, ids []string) ([]email.Message, error) {
	return p.fetchMessages(ctx, folder, ids, false)
}

// PeekMessages fetches the full messages without changing their flags.
func (p *Provider) PeekMessages(ctx context.Context, folder string, ids []string) ([]email.Message, error) {
	return p.fetchMessages(ctx, folder, ids, true)
}

func (p *Provider) fetchMessages(ctx context.Context, folder string, ids []string, peek bool) ([]email.Message, error) {
	seqset, uids, err := parseUIDs(ids)
	if err != nil {
		return nil, err
	}
	c, err := p.selectFolder(ctx, folder, peek)
	if err != nil {
		return nil, err
	}

	section := &imap.BodySectionName{Peek: peek}
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}
	bodies := map[uint32][]byte{}

	ch := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, ch)
	}()
	var readErr error
	for msg := range ch {
		if msg == nil {
			continue
		}
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		data, err := io.ReadAll(body)
		if err != nil && readErr == nil {
			readErr = fmt.Errorf("cannot read message %d: %w", msg.Uid, err)
		}
		bodies[msg.Uid] = data
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("cannot fetch messages from folder %s: %w", folder, err)
	}
	if readErr != nil {
		return nil, readErr
	}

	messages := make([]email.Message, 0, len(uids))
	for i, uid := range uids {
		raw, ok := bodies[uid]
		if !ok {
			return nil, fmt.Errorf("message %s not found in folder %s", ids[i], folder)
		}
		messages = append(messages, email.Message{ID: formatUID(uid), Raw: raw})
	}
	p.l.WithField("folder", folder).Debugf("fetched %d message(s)", len(messages))
	return messages, nil
}

// AddMessage appends raw to folder. The returned id is empty when the
// server does not report the UID of the new message.
func (p *Provider) AddMessage(ctx context.Context, folder string, raw []byte, flags []string) (string, error) {
	c, err := p.conn(ctx)
	if err != nil {
		return "", err
	}
	imapFlags := toIMAPFlags(flags)

	supported, err := c.SupportUidPlus()
	if err != nil {
		return "", fmt.Errorf("cannot check for UIDPLUS support: %w", err)
	}
	if supported {
		uid, err := c.AppendUID(folder, imapFlags, time.Now(), bytes.NewReader(raw))
		if err != nil {
			return "", fmt.Errorf("cannot add message to folder %s: %w", folder, err)
		}
		if uid == 0 {
			return "", nil
		}
		return formatUID(uid), nil
	}
	if err := c.Append(folder, imapFlags, time.Now(), bytes.NewReader(raw)); err != nil {
		return "", fmt.Errorf("cannot add message to folder %s: %w", folder, err)
	}
	return "", nil
}

func (p *Provider) CopyMessages(ctx context.Context, from, to string, ids []string) error {
	seqset, _, err := parseUIDs(ids)
	if err != nil {
		return err
	}
	c, err := p.selectFolder(ctx, from, true)
	if err != nil {
		return err
	}
	if err := c.UidCopy(seqset, to); err != nil {
		return fmt.Errorf("cannot copy messages from %s to %s: %w", from, to, err)
	}
	return nil
}

func (p *Provider) MoveMessages(ctx context.Context, from, to string, ids []string) error {
	seqset, _, err := parseUIDs(ids)
	if err != nil {
		return err
	}
	c, err := p.selectFolder(ctx, from, false)
	if err != nil {
		return err
	}
	if err := c.UidMove(seqset, to); err == nil {
		return nil
	}
	p.l.Info("MOVE failed, falling back to copy&delete")
	if err := c.UidCopy(seqset, to); err != nil {
		return fmt.Errorf("cannot copy messages from %s to %s: %w", from, to, err)
	}
	return p.deleteSeqSet(c, seqset)
}

// DeleteMessages flags the messages as deleted and expunges them.
func (p *Provider) DeleteMessages(ctx context.Context, folder string, ids []string) error {
	seqset, _, err := parseUIDs(ids)
	if err != nil {
		return err
	}
	c, err := p.selectFolder(ctx, folder, false)
	if err != nil {
		return err
	}
	return p.deleteSeqSet(c, seqset)
}

func (p *Provider) deleteSeqSet(c Client, seqset *imap.SeqSet) error {
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.UidStore(seqset, item, []interface{}{imap.DeletedFlag}, nil); err != nil {
		return fmt.Errorf("cannot flag messages as deleted: %w", err)
	}
	if err := p.expunge(c, seqset); err != nil {
		return fmt.Errorf("cannot expunge messages: %w", err)
	}
	return nil
}
