package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/DEVBOX10/himalaya/internal/backend"
	"github.com/DEVBOX10/himalaya/internal/config"
	"github.com/DEVBOX10/himalaya/internal/email"
	"github.com/DEVBOX10/himalaya/internal/log"
)

const Kind = "smtp"

const dialTimeout = 30 * time.Second

type PasswordFunc func() (string, error)

// Transport delivers msg to recipients. The default transport dials the
// configured server.
type Transport func(cfg *config.SMTPConfig, password, from string, recipients []string, msg []byte) error

type Provider struct {
	Transport Transport

	account  string
	cfg      *config.SMTPConfig
	password PasswordFunc
	l        *logrus.Entry
}

func NewProvider(acct *config.AccountConfig, password PasswordFunc) (*Provider, error) {
	if err := config.ValidateSMTP(acct); err != nil {
		return nil, err
	}
	return &Provider{
		Transport: Send,
		account:   acct.Name,
		cfg:       acct.SMTP,
		password:  password,
		l: log.Logger(log.LOG_SMTP).WithFields(logrus.Fields{
			"account": acct.Name,
			"host":    acct.SMTP.Host,
		}),
	}, nil
}

func Factory(password func(acct *config.AccountConfig) PasswordFunc) backend.Factory {
	return func(acct *config.AccountConfig) (backend.Provider, error) {
		return NewProvider(acct, password(acct))
	}
}

func (p *Provider) Name() string {
	return Kind
}

func (p *Provider) Supports(c backend.Capability) bool {
	return c == backend.SendMessage
}

// SendMessage delivers raw to every To, Cc and Bcc recipient. The Bcc
// header is removed before delivery.
func (p *Provider) SendMessage(ctx context.Context, raw []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	from, recipients, err := email.ExtractEnvelope(raw)
	if err != nil {
		return fmt.Errorf("cannot parse message envelope: %w", err)
	}
	if from == "" {
		from = p.cfg.Login
	}
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients provided")
	}

	password := ""
	if p.password != nil {
		pw, err := p.password()
		if err != nil {
			return fmt.Errorf("cannot get smtp password of account %s: %w", p.account, err)
		}
		password = pw
	}

	transport := p.Transport
	if transport == nil {
		transport = Send
	}
	if err := transport(p.cfg, password, from, recipients, email.StripBcc(raw)); err != nil {
		return fmt.Errorf("cannot send message: %w", err)
	}
	p.l.WithField("recipients", len(recipients)).Debug("message sent")
	return nil
}

func Send(cfg *config.SMTPConfig, password, from string, recipients []string, msg []byte) error {
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients provided")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	host := cfg.Host
	tlsConfig := &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	var c *smtp.Client

	switch cfg.Encryption {
	case config.EncryptionTLS:
		conn, err := tls.DialWithDialer(&net.Dialer{Timeout: dialTimeout}, "tcp", addr, tlsConfig)
		if err != nil {
			return err
		}
		c, err = smtp.NewClient(conn, host)
		if err != nil {
			return err
		}
	default:
		conn, err := net.DialTimeout("tcp", addr, dialTimeout)
		if err != nil {
			return err
		}
		c, err = smtp.NewClient(conn, host)
		if err != nil {
			return err
		}
		if cfg.Encryption == config.EncryptionStartTLS {
			if err := c.StartTLS(tlsConfig); err != nil {
				_ = c.Quit()
				return err
			}
		}
	}
	defer c.Close()

	if password != "" {
		auth := smtp.PlainAuth("", cfg.Login, password, host)
		if err := c.Auth(auth); err != nil {
			return err
		}
	}

	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range recipients {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return c.Quit()
}
