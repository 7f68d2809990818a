package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

type ShareStore struct {
	db *sql.DB
}

// Create records a share link for the file and returns its id. A nil
// passwordHash makes the share public.
func (s *ShareStore) Create(ctx context.Context, ownerID, fileID string, passwordHash *string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shares (share_id, owner_id, file_id, password) VALUES (?,?,?,?)`,
		id, ownerID, fileID, passwordHash)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *ShareStore) CheckShareID(ctx context.Context, shareID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM shares WHERE share_id = ?`, shareID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FileID returns the file a share points at.
func (s *ShareStore) FileID(ctx context.Context, shareID string) (string, error) {
	var fileID string
	err := s.db.QueryRowContext(ctx,
		`SELECT file_id FROM shares WHERE share_id = ?`, shareID).Scan(&fileID)
	return fileID, err
}

func (s *ShareStore) HasPassword(ctx context.Context, shareID string) (bool, error) {
	var password sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT password FROM shares WHERE share_id = ?`, shareID).Scan(&password)
	if err != nil {
		return false, err
	}
	return password.Valid, nil
}

// CanDownload reports whether the share exists and the password hash
// matches. Public shares ignore the provided password.
func (s *ShareStore) CanDownload(ctx context.Context, shareID string, passwordHash *string) (bool, error) {
	var password sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT password FROM shares WHERE share_id = ?`, shareID).Scan(&password)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if !password.Valid {
		return true, nil
	}
	return passwordHash != nil && *passwordHash == password.String, nil
}
