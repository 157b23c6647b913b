package account

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DEVBOX10/himalaya/internal/config"
	"github.com/DEVBOX10/himalaya/internal/printer"
	"github.com/DEVBOX10/himalaya/internal/prompt"
	"github.com/DEVBOX10/himalaya/internal/secrets"
)

// PasswordStore keeps transport passwords per account.
type PasswordStore interface {
	GetPassword(account, transport string) (string, error)
	SetPassword(account, transport, password string) error
	DeletePassword(account, transport string) error
}

// Configure stores the passwords of the account transports in the keyring.
// Transports with a password in the config file are skipped. Existing
// keyring entries are kept unless reset is set.
func Configure(p printer.Printer, store PasswordStore, acct *config.AccountConfig, ask prompt.Secreter, reset bool) error {
	type transport struct {
		name     string
		password string
	}
	transports := []transport{}
	if acct.IMAP != nil {
		transports = append(transports, transport{"imap", acct.IMAP.Password})
	}
	if acct.SMTP != nil {
		transports = append(transports, transport{"smtp", acct.SMTP.Password})
	}
	if len(transports) == 0 {
		return fmt.Errorf("account %s has no imap or smtp section", acct.Name)
	}

	for _, t := range transports {
		if reset {
			if err := store.DeletePassword(acct.Name, t.name); err != nil {
				return fmt.Errorf("cannot reset %s password: %w", t.name, err)
			}
		}
		if t.password != "" {
			if err := p.Log(fmt.Sprintf("%s password of account %s is set in the config file", strings.ToUpper(t.name), acct.Name)); err != nil {
				return err
			}
			continue
		}
		if !reset {
			_, err := store.GetPassword(acct.Name, t.name)
			if err == nil {
				continue
			}
			if !errors.Is(err, secrets.ErrSecretNotFound) {
				return err
			}
		}
		password, err := ask.Secret(fmt.Sprintf("%s password of account %s", strings.ToUpper(t.name), acct.Name))
		if err != nil {
			return err
		}
		if err := store.SetPassword(acct.Name, t.name, password); err != nil {
			return fmt.Errorf("cannot save %s password: %w", t.name, err)
		}
	}

	return p.Out(fmt.Sprintf("Account %s successfully configured!", acct.Name))
}
