package cache

import migrate "github.com/rubenv/sql-migrate"

var migrations = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "1_initial",
			Up: []string{
				`CREATE TABLE folders (
					name        TEXT PRIMARY KEY,
					delim       TEXT NOT NULL DEFAULT '',
					description TEXT NOT NULL DEFAULT '',
					synced_at   INTEGER NOT NULL
				)`,
				`CREATE TABLE messages (
					folder    TEXT NOT NULL,
					id        TEXT NOT NULL,
					raw       BLOB NOT NULL,
					synced_at INTEGER NOT NULL,
					PRIMARY KEY (folder, id)
				)`,
			},
			Down: []string{
				`DROP TABLE messages`,
				`DROP TABLE folders`,
			},
		},
		{
			Id: "2_folder_validity",
			Up: []string{
				`CREATE TABLE folder_validity (
					folder      TEXT PRIMARY KEY,
					uidvalidity INTEGER NOT NULL
				)`,
			},
			Down: []string{
				`DROP TABLE folder_validity`,
			},
		},
	},
}
