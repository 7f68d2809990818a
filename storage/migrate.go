package storage

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"time"
)

// Migration is a single versioned schema step. Versions are compared as
// strings, so keep the numeric prefix zero-free and ordered.
type Migration interface {
	Version() string
	Up() string
	Down() string
}

var migrations = []Migration{
	usersMigration{},
	filesMigration{},
	sharesMigration{},
}

// Migrate applies every migration newer than the recorded version inside
// one transaction.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS migration_history (
			version TEXT NOT NULL,
			performed_at INTEGER NOT NULL
		);
	`); err != nil {
		return err
	}

	current, err := currentVersion(ctx, db)
	if err != nil {
		return err
	}

	slices.SortFunc(migrations, func(a, b Migration) int {
		if a.Version() > b.Version() {
			return 1
		}
		return -1
	})

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, migration := range migrations {
		if current >= migration.Version() {
			continue
		}

		if _, err := tx.ExecContext(ctx, migration.Up()); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO migration_history (version, performed_at) VALUES (?,?)`,
			migration.Version(), time.Now().UTC().Unix()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func currentVersion(ctx context.Context, db *sql.DB) (string, error) {
	var version string
	row := db.QueryRowContext(ctx,
		`SELECT version FROM migration_history ORDER BY version DESC LIMIT 1`)
	if err := row.Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return version, nil
}

type usersMigration struct{}

func (usersMigration) Version() string {
	return "1_create_users"
}

func (usersMigration) Up() string {
	return `
		CREATE TABLE users (
			user_id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL
		);
	`
}

func (usersMigration) Down() string {
	return `DROP TABLE users;`
}

type filesMigration struct{}

func (filesMigration) Version() string {
	return "2_create_files"
}

func (filesMigration) Up() string {
	return `
		CREATE TABLE files (
			file_id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			parent_id TEXT NOT NULL,
			name TEXT NOT NULL,
			is_folder INTEGER NOT NULL
		);
	`
}

func (filesMigration) Down() string {
	return `DROP TABLE files;`
}

type sharesMigration struct{}

func (sharesMigration) Version() string {
	return "3_create_shares"
}

func (sharesMigration) Up() string {
	return `
		CREATE TABLE shares (
			share_id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			file_id TEXT NOT NULL,
			password TEXT
		);
	`
}

func (sharesMigration) Down() string {
	return `DROP TABLE shares;`
}
