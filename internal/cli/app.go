package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/DEVBOX10/himalaya/internal/backend"
	"github.com/DEVBOX10/himalaya/internal/backend/imap"
	"github.com/DEVBOX10/himalaya/internal/backend/smtp"
	"github.com/DEVBOX10/himalaya/internal/cache"
	"github.com/DEVBOX10/himalaya/internal/config"
	"github.com/DEVBOX10/himalaya/internal/log"
	"github.com/DEVBOX10/himalaya/internal/printer"
	"github.com/DEVBOX10/himalaya/internal/prompt"
	"github.com/DEVBOX10/himalaya/internal/secrets"
)

// app holds what every command shares for one process: the loaded
// configuration, the keyring store and the backend resolver.
type app struct {
	configPath  string
	accountName string
	output      string
	logLevel    string

	cfg      config.Config
	secrets  *secrets.Store
	resolver *backend.Resolver
	confirm  prompt.Confirmer
	secret   prompt.Secreter
}

func newApp() *app {
	return &app{
		confirm: prompt.Terminal{},
		secret:  prompt.Terminal{},
	}
}

// load reads the configuration and wires the secrets store and resolver.
// It runs once, before any subcommand.
func (a *app) load(cmd *cobra.Command) error {
	var (
		cfg config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if cmd.Flags().Changed("log-level") || level == "" {
		level = a.logLevel
	}
	log.InitLogging(level, cmd.ErrOrStderr())

	if a.secrets == nil {
		a.secrets = secrets.New(config.AppName, cfg.KeyringBackend)
	}
	if a.resolver == nil {
		a.resolver = newResolver(a.secrets)
	}
	return nil
}

func newResolver(store *secrets.Store) *backend.Resolver {
	r := backend.NewResolver()
	r.Register(imap.Kind, imap.Factory(func(acct *config.AccountConfig) imap.PasswordFunc {
		return passwordFunc(store, acct, imap.Kind, func() string { return acct.IMAP.Password })
	}))
	r.Register(smtp.Kind, smtp.Factory(func(acct *config.AccountConfig) smtp.PasswordFunc {
		return passwordFunc(store, acct, smtp.Kind, func() string { return acct.SMTP.Password })
	}))
	r.SetContextFactory(cache.ContextFactory)
	return r
}

// passwordFunc prefers the password written in the config file and falls
// back to the keyring entry of the account transport.
func passwordFunc(store *secrets.Store, acct *config.AccountConfig, transport string, inline func() string) func() (string, error) {
	return func() (string, error) {
		if password := inline(); password != "" {
			return password, nil
		}
		password, err := store.GetPassword(acct.Name, transport)
		if errors.Is(err, secrets.ErrSecretNotFound) {
			return "", fmt.Errorf("no %s password for account %s, run `%s -a %s account configure`", transport, acct.Name, config.AppName, acct.Name)
		}
		return password, err
	}
}

func (a *app) account() (*config.AccountConfig, error) {
	return a.cfg.Account(a.accountName)
}

func (a *app) printer(out io.Writer) (printer.Printer, error) {
	return printer.NewStdoutPrinter(out, a.output)
}

func (a *app) confirmer(yes bool) prompt.Confirmer {
	if yes {
		return prompt.Yes{}
	}
	return a.confirm
}
