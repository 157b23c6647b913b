package account

import (
	"strings"

	"github.com/DEVBOX10/himalaya/internal/config"
	"github.com/DEVBOX10/himalaya/internal/printer"
)

type Account struct {
	Name     string   `json:"name"`
	Backends []string `json:"backends"`
	Default  bool     `json:"default"`
}

type Accounts []Account

func (a Accounts) Header() []string {
	return []string{"NAME", "BACKENDS", "DEFAULT"}
}

func (a Accounts) Rows() [][]string {
	rows := make([][]string, 0, len(a))
	for _, acct := range a {
		def := ""
		if acct.Default {
			def = "yes"
		}
		rows = append(rows, []string{acct.Name, strings.Join(acct.Backends, ", "), def})
	}
	return rows
}

// List prints the configured accounts sorted by name.
func List(p printer.Printer, cfg config.Config, maxWidth int) error {
	accounts := Accounts{}
	for _, name := range cfg.AccountNames() {
		acct, err := cfg.Account(name)
		if err != nil {
			return err
		}
		accounts = append(accounts, Account{Name: acct.Name, Backends: acct.Backends, Default: acct.Default})
	}
	return p.PrintTable(accounts, printer.TableOpts{MaxWidth: maxWidth})
}
