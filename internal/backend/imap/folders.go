package imap

import (
	"context"
	"fmt"
	"strings"

	"github.com/emersion/go-imap"

	"github.com/DEVBOX10/himalaya/internal/email"
)

func (p *Provider) ListFolders(ctx context.Context) (email.Folders, error) {
	c, err := p.conn(ctx)
	if err != nil {
		return nil, err
	}

	folders := email.Folders{}
	ch := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.List("", "*", ch)
	}()
	for mbox := range ch {
		if mbox == nil {
			continue
		}
		folders = append(folders, email.Folder{
			Name:  mbox.Name,
			Delim: mbox.Delimiter,
			Desc:  strings.Join(mbox.Attributes, ", "),
		})
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("cannot list folders: %w", err)
	}
	return folders, nil
}

func (p *Provider) AddFolder(ctx context.Context, folder string) error {
	c, err := p.conn(ctx)
	if err != nil {
		return err
	}
	if err := c.Create(folder); err != nil {
		return fmt.Errorf("cannot create folder %s: %w", folder, err)
	}
	return nil
}

func (p *Provider) DeleteFolder(ctx context.Context, folder string) error {
	c, err := p.conn(ctx)
	if err != nil {
		return err
	}
	if err := c.Delete(folder); err != nil {
		return fmt.Errorf("cannot delete folder %s: %w", folder, err)
	}
	return nil
}

// ExpungeFolder removes every message of folder flagged as deleted.
func (p *Provider) ExpungeFolder(ctx context.Context, folder string) error {
	c, err := p.selectFolder(ctx, folder, false)
	if err != nil {
		return err
	}
	if err := p.expunge(c, nil); err != nil {
		return fmt.Errorf("cannot expunge folder %s: %w", folder, err)
	}
	return nil
}

// PurgeFolder removes every message of folder.
func (p *Provider) PurgeFolder(ctx context.Context, folder string) error {
	c, err := p.selectFolder(ctx, folder, false)
	if err != nil {
		return err
	}
	uids, err := c.UidSearch(imap.NewSearchCriteria())
	if err != nil {
		return fmt.Errorf("cannot search folder %s: %w", folder, err)
	}
	if len(uids) == 0 {
		return nil
	}
	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.UidStore(seqset, item, []interface{}{imap.DeletedFlag}, nil); err != nil {
		return fmt.Errorf("cannot flag messages of folder %s as deleted: %w", folder, err)
	}
	if err := p.expunge(c, nil); err != nil {
		return fmt.Errorf("cannot purge folder %s: %w", folder, err)
	}
	return nil
}

// FolderValidity examines folder and returns its UIDVALIDITY.
func (p *Provider) FolderValidity(ctx context.Context, folder string) (uint32, error) {
	c, err := p.conn(ctx)
	if err != nil {
		return 0, err
	}
	status, err := c.Select(folder, true)
	if err != nil {
		return 0, fmt.Errorf("cannot examine folder %s: %w", folder, err)
	}
	return status.UidValidity, nil
}
