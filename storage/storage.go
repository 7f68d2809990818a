package storage

import (
	"context"
	"database/sql"

	_ "github.com/glebarez/go-sqlite"
)

// Store bundles the repositories backed by a single sqlite database.
type Store struct {
	db *sql.DB

	Users  *UserStore
	Files  *FileStore
	Shares *ShareStore
}

// Open opens the database at dsn and brings the schema up to date.
// An empty dsn opens a shared in-memory database, which is what the
// tests use.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		Users:  &UserStore{db: db},
		Files:  &FileStore{db: db},
		Shares: &ShareStore{db: db},
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
