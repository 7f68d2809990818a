package storage

import (
	"context"
	"database/sql"
	"errors"
)

var ErrExists = errors.New("storage: already exists")

type UserStore struct {
	db *sql.DB
}

// Register inserts a new user. Passwords are stored as the hex digest the
// caller computed, never in the clear.
func (s *UserStore) Register(ctx context.Context, userID, email, passwordHash string) error {
	taken, err := s.IDExists(ctx, userID)
	if err != nil {
		return err
	}
	if !taken {
		taken, err = s.EmailExists(ctx, email)
		if err != nil {
			return err
		}
	}
	if taken {
		return ErrExists
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, email, password) VALUES (?,?,?)`,
		userID, email, passwordHash)
	return err
}

func (s *UserStore) IDExists(ctx context.Context, userID string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM users WHERE user_id = ?`, userID)
}

func (s *UserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM users WHERE email = ?`, email)
}

// Login reports whether the credentials match a registered user.
func (s *UserStore) Login(ctx context.Context, userID, passwordHash string) (bool, error) {
	return s.exists(ctx,
		`SELECT 1 FROM users WHERE user_id = ? AND password = ?`,
		userID, passwordHash)
}

func (s *UserStore) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
