package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

const (
	EncryptionTLS      = "tls"
	EncryptionStartTLS = "start-tls"
	EncryptionNone     = "none"

	DefaultFolder = "INBOX"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrNoAccounts       = errors.New("no account configured")
	ErrNoDefaultAccount = errors.New("no default account set")
)

type Config struct {
	DisplayName    string                    `mapstructure:"display-name" toml:"display-name,omitempty" yaml:"display-name,omitempty"`
	DownloadsDir   string                    `mapstructure:"downloads-dir" toml:"downloads-dir,omitempty" yaml:"downloads-dir,omitempty"`
	KeyringBackend string                    `mapstructure:"keyring-backend" toml:"keyring-backend,omitempty" yaml:"keyring-backend,omitempty"`
	LogLevel       string                    `mapstructure:"log-level" toml:"log-level,omitempty" yaml:"log-level,omitempty"`
	Accounts       map[string]*AccountConfig `mapstructure:"accounts" toml:"accounts" yaml:"accounts"`
}

type AccountConfig struct {
	Name string `mapstructure:"-" toml:"-" yaml:"-"`

	Default       bool     `mapstructure:"default" toml:"default,omitempty" yaml:"default,omitempty"`
	Email         string   `mapstructure:"email" toml:"email" yaml:"email"`
	DisplayName   string   `mapstructure:"display-name" toml:"display-name,omitempty" yaml:"display-name,omitempty"`
	DownloadsDir  string   `mapstructure:"downloads-dir" toml:"downloads-dir,omitempty" yaml:"downloads-dir,omitempty"`
	DefaultFolder string   `mapstructure:"default-folder" toml:"default-folder,omitempty" yaml:"default-folder,omitempty"`
	Backends      []string `mapstructure:"backends" toml:"backends,omitempty" yaml:"backends,omitempty"`

	IMAP  *IMAPConfig `mapstructure:"imap" toml:"imap,omitempty" yaml:"imap,omitempty"`
	SMTP  *SMTPConfig `mapstructure:"smtp" toml:"smtp,omitempty" yaml:"smtp,omitempty"`
	Sync  SyncConfig  `mapstructure:"sync" toml:"sync,omitempty" yaml:"sync,omitempty"`
	Table TableConfig `mapstructure:"table" toml:"table,omitempty" yaml:"table,omitempty"`
}

type IMAPConfig struct {
	Host               string `mapstructure:"host" toml:"host" yaml:"host"`
	Port               int    `mapstructure:"port" toml:"port,omitempty" yaml:"port,omitempty"`
	Encryption         string `mapstructure:"encryption" toml:"encryption,omitempty" yaml:"encryption,omitempty"`
	InsecureSkipVerify bool   `mapstructure:"insecure-skip-verify" toml:"insecure-skip-verify,omitempty" yaml:"insecure-skip-verify,omitempty"`
	Login              string `mapstructure:"login" toml:"login" yaml:"login"`
	Password           string `mapstructure:"password" toml:"password,omitempty" yaml:"password,omitempty"`
}

type SMTPConfig struct {
	Host               string `mapstructure:"host" toml:"host" yaml:"host"`
	Port               int    `mapstructure:"port" toml:"port,omitempty" yaml:"port,omitempty"`
	Encryption         string `mapstructure:"encryption" toml:"encryption,omitempty" yaml:"encryption,omitempty"`
	InsecureSkipVerify bool   `mapstructure:"insecure-skip-verify" toml:"insecure-skip-verify,omitempty" yaml:"insecure-skip-verify,omitempty"`
	Login              string `mapstructure:"login" toml:"login" yaml:"login"`
	Password           string `mapstructure:"password" toml:"password,omitempty" yaml:"password,omitempty"`
}

// SyncConfig holds the raw folder synchronization settings. Strategy is one of
// "all", "include" or "exclude"; Folders is ignored for "all".
type SyncConfig struct {
	Dir      string   `mapstructure:"dir" toml:"dir,omitempty" yaml:"dir,omitempty"`
	Strategy string   `mapstructure:"strategy" toml:"strategy,omitempty" yaml:"strategy,omitempty"`
	Folders  []string `mapstructure:"folders" toml:"folders,omitempty" yaml:"folders,omitempty"`
}

type TableConfig struct {
	MaxWidth int `mapstructure:"max-width" toml:"max-width,omitempty" yaml:"max-width,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Accounts: map[string]*AccountConfig{},
	}
}

func ConfigPath() (string, error) {
	if path := os.Getenv("HIMALAYA_CONFIG"); path != "" {
		return path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}
	return LoadFile(path)
}

func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix("HIMALAYA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Accounts == nil {
		cfg.Accounts = map[string]*AccountConfig{}
	}
	for name, acct := range cfg.Accounts {
		if acct == nil {
			acct = &AccountConfig{}
			cfg.Accounts[name] = acct
		}
		acct.Name = name
		applyAccountDefaults(acct)
	}

	return cfg, nil
}

func Save(cfg Config) (string, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", err
	}

	data, err := Encode(cfg)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}

	return path, nil
}

// Encode renders cfg as TOML, the format Load reads back.
func Encode(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

func Redact(cfg Config) Config {
	masked := cfg
	masked.Accounts = make(map[string]*AccountConfig, len(cfg.Accounts))
	for name, acct := range cfg.Accounts {
		copied := *acct
		if copied.IMAP != nil && copied.IMAP.Password != "" {
			imapCopy := *copied.IMAP
			imapCopy.Password = "****"
			copied.IMAP = &imapCopy
		}
		if copied.SMTP != nil && copied.SMTP.Password != "" {
			smtpCopy := *copied.SMTP
			smtpCopy.Password = "****"
			copied.SMTP = &smtpCopy
		}
		masked.Accounts[name] = &copied
	}
	return masked
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log-level", "warn")
	v.SetDefault("keyring-backend", "auto")
}

func applyAccountDefaults(acct *AccountConfig) {
	if acct.IMAP != nil {
		if acct.IMAP.Encryption == "" {
			acct.IMAP.Encryption = EncryptionTLS
		}
		if acct.IMAP.Port == 0 {
			acct.IMAP.Port = defaultPort(acct.IMAP.Encryption, 993, 143)
		}
		if acct.IMAP.Login == "" {
			acct.IMAP.Login = acct.Email
		}
	}
	if acct.SMTP != nil {
		if acct.SMTP.Encryption == "" {
			acct.SMTP.Encryption = EncryptionStartTLS
		}
		if acct.SMTP.Port == 0 {
			acct.SMTP.Port = defaultPort(acct.SMTP.Encryption, 465, 587)
		}
		if acct.SMTP.Login == "" {
			acct.SMTP.Login = acct.Email
		}
	}
	if len(acct.Backends) == 0 {
		if acct.IMAP != nil {
			acct.Backends = append(acct.Backends, "imap")
		}
		if acct.SMTP != nil {
			acct.Backends = append(acct.Backends, "smtp")
		}
	}
}

func defaultPort(encryption string, tlsPort, plainPort int) int {
	if encryption == EncryptionTLS {
		return tlsPort
	}
	return plainPort
}

// AccountNames returns the configured account names, sorted.
func (c Config) AccountNames() []string {
	names := make([]string, 0, len(c.Accounts))
	for name := range c.Accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Account selects the named account, or the default one when name is empty.
// The returned value is a copy carrying the global settings it inherits.
func (c Config) Account(name string) (*AccountConfig, error) {
	if len(c.Accounts) == 0 {
		return nil, ErrNoAccounts
	}

	var acct *AccountConfig
	key := name
	if name != "" {
		found, ok := c.Accounts[name]
		if !ok || found == nil {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, name)
		}
		acct = found
	} else {
		for _, candidate := range c.AccountNames() {
			if c.Accounts[candidate] != nil && c.Accounts[candidate].Default {
				acct, key = c.Accounts[candidate], candidate
				break
			}
		}
		if acct == nil && len(c.Accounts) == 1 {
			for only, candidate := range c.Accounts {
				acct, key = candidate, only
			}
		}
		if acct == nil {
			return nil, ErrNoDefaultAccount
		}
	}

	copied := *acct
	if copied.Name == "" {
		copied.Name = key
	}
	if copied.DownloadsDir == "" {
		copied.DownloadsDir = c.DownloadsDir
	}
	if copied.DisplayName == "" {
		copied.DisplayName = c.DisplayName
	}
	return &copied, nil
}

// Folder returns name, or the account default folder when name is empty.
func (a *AccountConfig) Folder(name string) string {
	if name != "" {
		return name
	}
	if a.DefaultFolder != "" {
		return a.DefaultFolder
	}
	return DefaultFolder
}

func ValidateIMAP(acct *AccountConfig) error {
	if acct.IMAP == nil {
		return fmt.Errorf("accounts.%s.imap is not configured", acct.Name)
	}
	if acct.IMAP.Host == "" {
		return fmt.Errorf("accounts.%s.imap.host is required", acct.Name)
	}
	if acct.IMAP.Login == "" {
		return fmt.Errorf("accounts.%s.imap.login is required", acct.Name)
	}
	return validateEncryption(acct.IMAP.Encryption)
}

func ValidateSMTP(acct *AccountConfig) error {
	if acct.SMTP == nil {
		return fmt.Errorf("accounts.%s.smtp is not configured", acct.Name)
	}
	if acct.SMTP.Host == "" {
		return fmt.Errorf("accounts.%s.smtp.host is required", acct.Name)
	}
	if acct.SMTP.Login == "" {
		return fmt.Errorf("accounts.%s.smtp.login is required", acct.Name)
	}
	return validateEncryption(acct.SMTP.Encryption)
}

func validateEncryption(value string) error {
	switch value {
	case EncryptionTLS, EncryptionStartTLS, EncryptionNone:
		return nil
	default:
		return fmt.Errorf("invalid encryption %q (expected %s, %s or %s)", value, EncryptionTLS, EncryptionStartTLS, EncryptionNone)
	}
}
