package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const AppName = "himalaya"

func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home dir: %w", err)
	}

	return filepath.Join(home, ".config", AppName), nil
}

// KeyringDir is where the keyring "file" backend stores encrypted entries.
func KeyringDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, "keyring"), nil
}

func EnsureKeyringDir() (string, error) {
	dir, err := KeyringDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("ensure keyring dir: %w", err)
	}

	return dir, nil
}

// SyncDatabaseFile is the sqlite file backing the synchronization cache of
// the account. Nothing is created.
func (a *AccountConfig) SyncDatabaseFile() (string, error) {
	dir := expandHome(a.Sync.Dir)
	if dir == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("resolve user cache dir: %w", err)
		}
		dir = filepath.Join(cache, AppName)
	}
	return filepath.Join(dir, a.Name+".db"), nil
}

// SyncDatabasePath is SyncDatabaseFile with its directory created.
func (a *AccountConfig) SyncDatabasePath() (string, error) {
	path, err := a.SyncDatabaseFile()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("ensure sync dir: %w", err)
	}
	return path, nil
}

// DownloadsDirPath resolves the directory attachments are written to: the
// configured one, else ~/Downloads when it exists, else the temp dir.
func (a *AccountConfig) DownloadsDirPath() string {
	if dir := expandHome(a.DownloadsDir); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		downloads := filepath.Join(home, "Downloads")
		if info, err := os.Stat(downloads); err == nil && info.IsDir() {
			return downloads
		}
	}
	return os.TempDir()
}

// DownloadFilePath returns a path under the downloads dir for filename that
// does not exist yet. Only the base name of filename is kept; a name with
// no usable base is replaced by a random one.
func (a *AccountConfig) DownloadFilePath(filename string) (string, error) {
	dir := a.DownloadsDirPath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create downloads dir %s: %w", dir, err)
	}

	base := filepath.Base(filepath.Clean("/" + filename))
	if base == "/" || base == "." {
		base = uuid.NewString()
	}

	return ensureUniqueFilename(filepath.Join(dir, base)), nil
}

func ensureUniqueFilename(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
