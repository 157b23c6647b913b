package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/DEVBOX10/himalaya/internal/email"
	"github.com/DEVBOX10/himalaya/internal/log"
)

// Store is the synchronization cache of one account.
type Store struct {
	db *sqlx.DB
	l  *logrus.Logger
}

// Open opens or creates the sqlite database at datasource and applies the
// pending migrations. ":memory:" gives a throwaway cache.
func Open(datasource string) (*Store, error) {
	db, err := sqlx.Open("sqlite", datasource)
	if err != nil {
		return nil, fmt.Errorf("could not open cache db: %w", err)
	}
	db.SetMaxOpenConns(1)

	l := log.Logger(log.LOG_CACHE)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not set journal mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA synchronous=normal`); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not set synchronous mode: %w", err)
	}

	applied, err := migrate.Exec(db.DB, "sqlite3", migrations, migrate.Up)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not migrate cache db: %w", err)
	}
	l.WithFields(logrus.Fields{"file": datasource, "migrations": applied}).Debug("opened cache")

	return &Store{db: db, l: l}, nil
}

// OpenReadOnly opens the existing database at path without creating,
// migrating or writing it.
func OpenReadOnly(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("could not open cache db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not open cache db %s read-only: %w", path, err)
	}
	return &Store{db: db, l: log.Logger(log.LOG_CACHE)}, nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("could not close cache db: %w", err)
	}
	return nil
}

type folderRow struct {
	Name        string `db:"name"`
	Delim       string `db:"delim"`
	Description string `db:"description"`
}

// SaveFolders upserts folders.
func (s *Store) SaveFolders(folders email.Folders) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	now := time.Now().Unix()
	for _, f := range folders {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO folders (name, delim, description, synced_at) VALUES (?, ?, ?, ?)`,
			f.Name, f.Delim, f.Desc, now,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("could not save folder %s: %w", f.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit folders: %w", err)
	}
	s.l.WithField("count", len(folders)).Debug("saved folders")
	return nil
}

func (s *Store) Folders() (email.Folders, error) {
	rows := []folderRow{}
	if err := s.db.Select(&rows, `SELECT name, delim, description FROM folders ORDER BY name`); err != nil {
		return nil, fmt.Errorf("could not query folders: %w", err)
	}
	folders := make(email.Folders, 0, len(rows))
	for _, r := range rows {
		folders = append(folders, email.Folder{Name: r.Name, Delim: r.Delim, Desc: r.Description})
	}
	return folders, nil
}

// DeleteFolder drops folder and every cached message of it.
func (s *Store) DeleteFolder(name string) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM messages WHERE folder = ?`, name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("could not delete messages of folder %s: %w", name, err)
	}
	if _, err := tx.Exec(`DELETE FROM folder_validity WHERE folder = ?`, name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("could not delete validity of folder %s: %w", name, err)
	}
	if _, err := tx.Exec(`DELETE FROM folders WHERE name = ?`, name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("could not delete folder %s: %w", name, err)
	}
	return tx.Commit()
}

func (s *Store) SaveMessages(folder string, messages []email.Message) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	now := time.Now().Unix()
	for _, m := range messages {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO messages (folder, id, raw, synced_at) VALUES (?, ?, ?, ?)`,
			folder, m.ID, m.Raw, now,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("could not save message %s: %w", m.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit messages: %w", err)
	}
	s.l.WithFields(logrus.Fields{"folder": folder, "count": len(messages)}).Debug("saved messages")
	return nil
}

// Messages returns the cached messages of folder among ids, keyed by id.
func (s *Store) Messages(folder string, ids []string) (map[string]email.Message, error) {
	found := map[string]email.Message{}
	if len(ids) == 0 {
		return found, nil
	}
	query, args, err := sqlx.In(`SELECT id, raw FROM messages WHERE folder = ? AND id IN (?)`, folder, ids)
	if err != nil {
		return nil, fmt.Errorf("could not build query: %w", err)
	}
	rows := []struct {
		ID  string `db:"id"`
		Raw []byte `db:"raw"`
	}{}
	if err := s.db.Select(&rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("could not query messages: %w", err)
	}
	for _, r := range rows {
		found[r.ID] = email.Message{ID: r.ID, Raw: r.Raw}
	}
	return found, nil
}

// MessageIDs lists the ids cached for folder.
func (s *Store) MessageIDs(folder string) ([]string, error) {
	ids := []string{}
	if err := s.db.Select(&ids, `SELECT id FROM messages WHERE folder = ? ORDER BY id`, folder); err != nil {
		return nil, fmt.Errorf("could not query message ids: %w", err)
	}
	return ids, nil
}

// Validity returns the validity recorded for folder, ok false when none is.
func (s *Store) Validity(folder string) (validity uint32, ok bool, err error) {
	err = s.db.Get(&validity, `SELECT uidvalidity FROM folder_validity WHERE folder = ?`, folder)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("could not query validity of folder %s: %w", folder, err)
	}
	return validity, true, nil
}

// CheckValidity records validity for folder. When a different validity was
// recorded before, the cached messages of folder no longer match their ids
// and are dropped; reset reports it.
func (s *Store) CheckValidity(folder string, validity uint32) (reset bool, err error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return false, fmt.Errorf("could not begin transaction: %w", err)
	}
	var known uint32
	err = tx.Get(&known, `SELECT uidvalidity FROM folder_validity WHERE folder = ?`, folder)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		_ = tx.Rollback()
		return false, fmt.Errorf("could not query validity of folder %s: %w", folder, err)
	case known == validity:
		return false, tx.Rollback()
	default:
		if _, err := tx.Exec(`DELETE FROM messages WHERE folder = ?`, folder); err != nil {
			_ = tx.Rollback()
			return false, fmt.Errorf("could not invalidate messages of folder %s: %w", folder, err)
		}
		reset = true
	}
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO folder_validity (folder, uidvalidity) VALUES (?, ?)`,
		folder, validity,
	); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("could not save validity of folder %s: %w", folder, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("could not commit validity: %w", err)
	}
	if reset {
		s.l.WithFields(logrus.Fields{"folder": folder, "uidvalidity": validity}).Info("folder validity changed, cache invalidated")
	}
	return reset, nil
}
