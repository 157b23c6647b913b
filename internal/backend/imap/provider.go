package imap

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/emersion/go-imap"
	"github.com/sirupsen/logrus"

	"github.com/DEVBOX10/himalaya/internal/backend"
	"github.com/DEVBOX10/himalaya/internal/config"
	"github.com/DEVBOX10/himalaya/internal/log"
)

const Kind = "imap"

// PasswordFunc returns the IMAP password. It is only called when the
// provider connects.
type PasswordFunc func() (string, error)

// Provider serves every mailbox capability over a single IMAP session that
// is opened on first use.
type Provider struct {
	Connector Connector

	account  string
	cfg      *config.IMAPConfig
	password PasswordFunc
	l        *logrus.Entry

	mu     sync.Mutex
	client Client
}

func NewProvider(acct *config.AccountConfig, password PasswordFunc) (*Provider, error) {
	if err := config.ValidateIMAP(acct); err != nil {
		return nil, err
	}
	return &Provider{
		Connector: Connect,
		account:   acct.Name,
		cfg:       acct.IMAP,
		password:  password,
		l: log.Logger(log.LOG_IMAP).WithFields(logrus.Fields{
			"account": acct.Name,
			"host":    acct.IMAP.Host,
		}),
	}, nil
}

// Factory adapts NewProvider to the resolver.
func Factory(password func(acct *config.AccountConfig) PasswordFunc) backend.Factory {
	return func(acct *config.AccountConfig) (backend.Provider, error) {
		return NewProvider(acct, password(acct))
	}
}

func (p *Provider) Name() string {
	return Kind
}

func (p *Provider) Supports(c backend.Capability) bool {
	return c != backend.SendMessage
}

func (p *Provider) conn(ctx context.Context) (Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}

	password := ""
	if p.password != nil {
		pw, err := p.password()
		if err != nil {
			return nil, fmt.Errorf("cannot get imap password of account %s: %w", p.account, err)
		}
		password = pw
	}

	connector := p.Connector
	if connector == nil {
		connector = Connect
	}
	client, err := connector(p.cfg, password)
	if err != nil {
		return nil, err
	}
	p.l.Debug("logged in to server")
	p.client = client
	return client, nil
}

func (p *Provider) selectFolder(ctx context.Context, folder string, readOnly bool) (Client, error) {
	c, err := p.conn(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := c.Select(folder, readOnly); err != nil {
		return nil, fmt.Errorf("cannot select folder %s: %w", folder, err)
	}
	return c, nil
}

func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		return nil
	}
	err := p.client.Logout()
	p.client = nil
	p.l.Debug("logged out")
	return err
}

func parseUIDs(ids []string) (*imap.SeqSet, []uint32, error) {
	if len(ids) == 0 {
		return nil, nil, fmt.Errorf("no message id given")
	}
	seqset := new(imap.SeqSet)
	uids := make([]uint32, 0, len(ids))
	for _, id := range ids {
		uid, err := strconv.ParseUint(id, 10, 32)
		if err != nil || uid == 0 {
			return nil, nil, fmt.Errorf("invalid message id %q", id)
		}
		uids = append(uids, uint32(uid))
		seqset.AddNum(uint32(uid))
	}
	return seqset, uids, nil
}

func formatUID(uid uint32) string {
	return strconv.FormatUint(uint64(uid), 10)
}

// expunge permanently removes the messages of seqset flagged as deleted.
// Without UIDPLUS every deleted message of the folder is expunged.
func (p *Provider) expunge(c Client, seqset *imap.SeqSet) error {
	ch := make(chan uint32)
	done := make(chan error, 1)

	uidPlus := false
	if seqset != nil {
		supported, err := c.SupportUidPlus()
		if err != nil {
			return fmt.Errorf("cannot check for UIDPLUS support: %w", err)
		}
		uidPlus = supported
	}

	go func() {
		if uidPlus {
			done <- c.UidExpunge(seqset, ch)
			return
		}
		done <- c.Expunge(ch)
	}()
	for range ch {
	}
	return <-done
}
