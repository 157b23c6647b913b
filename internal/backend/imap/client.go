package imap

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap"
	uidplus "github.com/emersion/go-imap-uidplus"
	imapclient "github.com/emersion/go-imap/client"
	"github.com/emersion/go-sasl"

	"github.com/DEVBOX10/himalaya/internal/config"
)

const dialTimeout = 30 * time.Second

type Client interface {
	Login(username, password string) error
	Logout() error
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	List(ref, name string, ch chan *imap.MailboxInfo) error
	Create(name string) error
	Delete(name string) error
	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)
	UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	UidStore(seqset *imap.SeqSet, item imap.StoreItem, value interface{}, ch chan *imap.Message) error
	UidMove(seqset *imap.SeqSet, mailbox string) error
	UidCopy(seqset *imap.SeqSet, mailbox string) error
	Append(mailbox string, flags []string, date time.Time, msg imap.Literal) error
	Expunge(ch chan uint32) error

	// UIDPLUS extension.
	SupportUidPlus() (bool, error)
	UidExpunge(seqset *imap.SeqSet, ch chan uint32) error
	AppendUID(mailbox string, flags []string, date time.Time, msg imap.Literal) (uint32, error)
}

// Connector opens an authenticated IMAP session.
type Connector func(cfg *config.IMAPConfig, password string) (Client, error)

var _ Client = (*conn)(nil)

type conn struct {
	*imapclient.Client
	uidplus *uidplus.Client
}

func (c *conn) SupportUidPlus() (bool, error) {
	return c.uidplus.SupportUidPlus()
}

func (c *conn) UidExpunge(seqset *imap.SeqSet, ch chan uint32) error {
	return c.uidplus.UidExpunge(seqset, ch)
}

func (c *conn) AppendUID(mailbox string, flags []string, date time.Time, msg imap.Literal) (uint32, error) {
	_, uid, err := c.uidplus.Append(mailbox, flags, date, msg)
	return uid, err
}

func Connect(cfg *config.IMAPConfig, password string) (Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dialer := &net.Dialer{Timeout: dialTimeout}
	tlsConfig := &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	var c *imapclient.Client
	var err error

	switch cfg.Encryption {
	case config.EncryptionTLS:
		c, err = imapclient.DialWithDialerTLS(dialer, addr, tlsConfig)
	default:
		c, err = imapclient.DialWithDialer(dialer, addr)
		if err == nil && cfg.Encryption == config.EncryptionStartTLS {
			if err := c.StartTLS(tlsConfig); err != nil {
				_ = c.Logout()
				return nil, fmt.Errorf("cannot start tls with %s: %w", addr, err)
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("cannot connect to %s: %w", addr, err)
	}

	if err := authenticate(c, cfg.Login, password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("cannot login to %s as %s: %w", addr, cfg.Login, err)
	}

	return &conn{Client: c, uidplus: uidplus.NewClient(c)}, nil
}

// authenticate prefers SASL PLAIN when the server advertises it, LOGIN
// otherwise.
func authenticate(c *imapclient.Client, login, password string) error {
	if ok, err := c.SupportAuth(sasl.Plain); err == nil && ok {
		return c.Authenticate(sasl.NewPlainClient("", login, password))
	}
	return c.Login(login, password)
}
